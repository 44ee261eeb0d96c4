package models

// InviteFailure describes one team member id that could not be invited.
type InviteFailure struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// InviteResult 批量邀请结果：逐条处理，部分失败不回滚
type InviteResult struct {
	Invited []string        `json:"invited"`
	Failed  []InviteFailure `json:"failed"`
}

// InviteRequest is the body of POST /api/teammembers/invite.
type InviteRequest struct {
	TeamMemberIDs []string `json:"teammemberIds"`
}

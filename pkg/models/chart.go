package models

// Chart 组织架构图：组织 → 部门 → 子职能 → 组长/成员，只包含已邀请的成员
type Chart struct {
	Organization Organization      `json:"organization"`
	Departments  []ChartDepartment `json:"departments"`
	Layout       ChartLayout       `json:"layout"`
}

// ChartDepartment is a department node with its subfunction columns.
type ChartDepartment struct {
	Department        Department         `json:"department"`
	Subfunctions      []ChartSubfunction `json:"subfunctions"`
	ConnectorX        float64            `json:"connectorX"`
	SubfunctionsWidth float64            `json:"subfunctionsWidth"`
}

// ChartSubfunction 子职能节点
type ChartSubfunction struct {
	Subfunction  Subfunction      `json:"subfunction"`
	Index        int              `json:"index"`
	Lead         *TeamMember      `json:"lead"`
	Members      []TeamMember     `json:"members"`
	MembersWidth float64          `json:"membersWidth"`
	Connectors   []ChartConnector `json:"connectors"`
}

// ChartConnector is a line from (X1, top) to (X2, bottom) in the row's own coordinates.
type ChartConnector struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
}

// ChartLayout 顶层尺寸
type ChartLayout struct {
	Width                float64 `json:"width"`
	TotalDepartmentWidth float64 `json:"totalDepartmentWidth"`
	OrganizationX        float64 `json:"organizationX"`
	DepartmentBarStart   float64 `json:"departmentBarStart"`
	DepartmentBarEnd     float64 `json:"departmentBarEnd"`
}

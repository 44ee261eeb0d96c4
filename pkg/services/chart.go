package services

import (
	"context"

	"orgchart-backend/pkg/models"
)

// 图表盒子尺寸（像素）
const (
	OrgBoxWidth         = 340
	DeptBoxWidth        = 340
	DeptBoxGap          = 32
	SubfuncBoxWidth     = 180
	SubfuncBoxGap       = 16
	TeamLeadBoxWidth    = 180
	TeamLeadBoxHeight   = 60
	TeamMemberBoxWidth  = 140
	TeamMemberBoxHeight = 50
	TeamMemberBoxGap    = 12
)

// BuildChart composes the caller's organization tree from invited members only.
func (s *Service) BuildChart(ctx context.Context, userID string) (*models.Chart, error) {
	org, err := s.GetOrganization(ctx, userID)
	if err != nil {
		return nil, err
	}
	departments, err := s.ListDepartments(ctx, userID, org.ID)
	if err != nil {
		return nil, err
	}
	members, err := s.ListTeamMembers(ctx, userID, TeamMemberQuery{OrganizationID: org.ID, InvitedOnly: true})
	if err != nil {
		return nil, err
	}
	return ComposeChart(*org, departments, members), nil
}

// ComposeChart builds the chart tree and its layout. Members are matched to a
// subfunction by id, or by position for records without one.
func ComposeChart(org models.Organization, departments []models.Department, members []models.TeamMember) *models.Chart {
	layout := chartLayout(len(departments))
	chart := &models.Chart{
		Organization: org,
		Departments:  make([]models.ChartDepartment, 0, len(departments)),
		Layout:       layout,
	}

	for i, dept := range departments {
		node := models.ChartDepartment{
			Department:        dept,
			Subfunctions:      make([]models.ChartSubfunction, 0, len(dept.Subfunctions)),
			ConnectorX:        layout.DepartmentBarStart + float64(i*(DeptBoxWidth+DeptBoxGap)),
			SubfunctionsWidth: rowWidth(len(dept.Subfunctions), SubfuncBoxWidth, SubfuncBoxGap),
		}

		for idx, sub := range dept.Subfunctions {
			col := models.ChartSubfunction{Subfunction: sub, Index: idx, Members: []models.TeamMember{}}
			for _, m := range members {
				if !belongsTo(m, dept.ID, sub.ID, idx) {
					continue
				}
				switch {
				case m.IsLead() && col.Lead == nil:
					lead := m
					col.Lead = &lead
				case m.Role == models.RoleTeamMember:
					col.Members = append(col.Members, m)
				}
			}
			col.MembersWidth = rowWidth(len(col.Members), TeamMemberBoxWidth, TeamMemberBoxGap)
			col.Connectors = memberConnectors(col.Lead != nil, len(col.Members))
			node.Subfunctions = append(node.Subfunctions, col)
		}
		chart.Departments = append(chart.Departments, node)
	}
	return chart
}

func belongsTo(m models.TeamMember, deptID, subID string, idx int) bool {
	if m.DepartmentID != deptID {
		return false
	}
	if m.SubfunctionID != "" {
		return m.SubfunctionID == subID
	}
	return m.SubfunctionIndex == idx
}

func chartLayout(deptCount int) models.ChartLayout {
	total := rowWidth(deptCount, DeptBoxWidth, DeptBoxGap)
	width := float64(OrgBoxWidth)
	if total > width {
		width = total
	}
	start := width/2 - total/2 + DeptBoxWidth/2
	end := width/2 + total/2 - DeptBoxWidth/2
	if deptCount == 0 {
		start, end = width/2, width/2
	}
	return models.ChartLayout{
		Width:                width,
		TotalDepartmentWidth: total,
		OrganizationX:        width / 2,
		DepartmentBarStart:   start,
		DepartmentBarEnd:     end,
	}
}

// rowWidth n 个盒子加间距的总宽度
func rowWidth(n int, box, gap float64) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*box + float64(n-1)*gap
}

// memberConnectors fans lines out from the lead's center to each member box.
func memberConnectors(hasLead bool, n int) []models.ChartConnector {
	connectors := []models.ChartConnector{}
	if !hasLead || n == 0 {
		return connectors
	}
	center := (float64(n)*(TeamMemberBoxWidth+TeamMemberBoxGap) - TeamMemberBoxGap) / 2
	for i := 0; i < n; i++ {
		connectors = append(connectors, models.ChartConnector{
			X1: center,
			X2: float64(i)*(TeamMemberBoxWidth+TeamMemberBoxGap) + TeamMemberBoxWidth/2,
		})
	}
	return connectors
}

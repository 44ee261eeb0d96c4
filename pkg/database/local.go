package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"orgchart-backend/pkg/models"

	"github.com/google/uuid"
)

// LocalDatabase 本地文件数据库实现
// dataDir 为空时只保存在内存中（测试和临时环境）
type LocalDatabase struct {
	dataDir string

	mu            sync.RWMutex
	organizations []models.Organization
	departments   []models.Department
	teamMembers   []models.TeamMember
}

const (
	organizationsFile = "organizations.json"
	departmentsFile   = "departments.json"
	teamMembersFile   = "teammembers.json"
)

// NewLocalDatabase 创建本地数据库实例，并加载目录中已有的数据
func NewLocalDatabase(dataDir string) (*LocalDatabase, error) {
	db := &LocalDatabase{dataDir: dataDir}
	if dataDir == "" {
		return db, nil
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		// 在只读文件系统中（如 Vercel）退回临时目录
		fallback := filepath.Join(os.TempDir(), "orgchart-data")
		if err2 := os.MkdirAll(fallback, 0o755); err2 != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		db.dataDir = fallback
	}

	if err := db.load(organizationsFile, &db.organizations); err != nil {
		return nil, err
	}
	if err := db.load(departmentsFile, &db.departments); err != nil {
		return nil, err
	}
	if err := db.load(teamMembersFile, &db.teamMembers); err != nil {
		return nil, err
	}
	return db, nil
}

// NewMemoryDatabase 创建纯内存数据库
func NewMemoryDatabase() *LocalDatabase {
	return &LocalDatabase{}
}

// CreateOrganization 创建组织
func (db *LocalDatabase) CreateOrganization(ctx context.Context, org *models.Organization) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, o := range db.organizations {
		if o.UserID == org.UserID {
			return fmt.Errorf("create organization: %w", ErrDuplicate)
		}
	}

	stampNew(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	next := append(cloneOrganizations(db.organizations), *org)
	if err := db.save(organizationsFile, next); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	db.organizations = next
	return nil
}

// GetOrganizationByUser 获取用户的组织
func (db *LocalDatabase) GetOrganizationByUser(ctx context.Context, userID string) (*models.Organization, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, o := range db.organizations {
		if o.UserID == userID {
			org := o
			return &org, nil
		}
	}
	return nil, fmt.Errorf("organization for user %s: %w", userID, ErrNotFound)
}

// UpdateOrganization 更新组织档案
func (db *LocalDatabase) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, o := range db.organizations {
		if o.ID == org.ID {
			updated := *org
			updated.UpdatedAt = time.Now().UTC()
			next := cloneOrganizations(db.organizations)
			next[i] = updated
			if err := db.save(organizationsFile, next); err != nil {
				return fmt.Errorf("update organization: %w", err)
			}
			org.UpdatedAt = updated.UpdatedAt
			db.organizations = next
			return nil
		}
	}
	return fmt.Errorf("organization %s: %w", org.ID, ErrNotFound)
}

// CreateDepartment 创建部门；(organization, user, departmentName) 唯一
func (db *LocalDatabase) CreateDepartment(ctx context.Context, dept *models.Department) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, d := range db.departments {
		if d.OrganizationID == dept.OrganizationID && d.UserID == dept.UserID && d.DepartmentName == dept.DepartmentName {
			return fmt.Errorf("create department %q: %w", dept.DepartmentName, ErrDuplicate)
		}
	}

	stampNew(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
	next := append(append([]models.Department(nil), db.departments...), cloneDepartment(*dept))
	if err := db.save(departmentsFile, next); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	db.departments = next
	return nil
}

// GetDepartment 按ID获取部门
func (db *LocalDatabase) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, d := range db.departments {
		if d.ID == id {
			dept := cloneDepartment(d)
			return &dept, nil
		}
	}
	return nil, fmt.Errorf("department %s: %w", id, ErrNotFound)
}

// ListDepartments 列出部门
func (db *LocalDatabase) ListDepartments(ctx context.Context, filter DepartmentFilter) ([]models.Department, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []models.Department{}
	for _, d := range db.departments {
		if filter.UserID != "" && d.UserID != filter.UserID {
			continue
		}
		if filter.OrganizationID != "" && d.OrganizationID != filter.OrganizationID {
			continue
		}
		result = append(result, cloneDepartment(d))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// CreateTeamMember 创建团队成员；同一子职能只允许一个组长
func (db *LocalDatabase) CreateTeamMember(ctx context.Context, tm *models.TeamMember) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if tm.Role == models.RoleTeamLead {
		for _, m := range db.teamMembers {
			if m.DepartmentID == tm.DepartmentID && m.SubfunctionID == tm.SubfunctionID && m.IsLead() {
				return fmt.Errorf("create team lead: %w", ErrDuplicate)
			}
		}
	}

	stampNew(&tm.ID, &tm.CreatedAt, &tm.UpdatedAt)
	next := append(cloneTeamMembers(db.teamMembers), *tm)
	if err := db.save(teamMembersFile, next); err != nil {
		return fmt.Errorf("create team member: %w", err)
	}
	db.teamMembers = next
	return nil
}

// GetTeamMember 按ID获取团队成员
func (db *LocalDatabase) GetTeamMember(ctx context.Context, id string) (*models.TeamMember, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, m := range db.teamMembers {
		if m.ID == id {
			tm := m
			return &tm, nil
		}
	}
	return nil, fmt.Errorf("team member %s: %w", id, ErrNotFound)
}

// ListTeamMembers 列出团队成员（按插入顺序即创建顺序）
func (db *LocalDatabase) ListTeamMembers(ctx context.Context, filter TeamMemberFilter) ([]models.TeamMember, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []models.TeamMember{}
	for _, m := range db.teamMembers {
		if matchTeamMember(m, filter) {
			result = append(result, m)
		}
	}
	return result, nil
}

// MarkTeamMemberInvited 标记为已邀请（幂等）
func (db *LocalDatabase) MarkTeamMemberInvited(ctx context.Context, userID, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, m := range db.teamMembers {
		if m.ID != id || m.UserID != userID {
			continue
		}
		if m.Invited {
			return nil
		}
		now := time.Now().UTC()
		next := cloneTeamMembers(db.teamMembers)
		next[i].Invited = true
		next[i].InvitedAt = &now
		next[i].UpdatedAt = now
		if err := db.save(teamMembersFile, next); err != nil {
			return fmt.Errorf("mark team member invited: %w", err)
		}
		db.teamMembers = next
		return nil
	}
	return fmt.Errorf("team member %s: %w", id, ErrNotFound)
}

// DeleteTeamMember 删除团队成员；其他成员的 reportTo 不做修改
func (db *LocalDatabase) DeleteTeamMember(ctx context.Context, userID, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, m := range db.teamMembers {
		if m.ID == id && m.UserID == userID {
			next := make([]models.TeamMember, 0, len(db.teamMembers)-1)
			next = append(next, db.teamMembers[:i]...)
			next = append(next, db.teamMembers[i+1:]...)
			if err := db.save(teamMembersFile, next); err != nil {
				return fmt.Errorf("delete team member: %w", err)
			}
			db.teamMembers = next
			return nil
		}
	}
	return fmt.Errorf("team member %s: %w", id, ErrNotFound)
}

// HealthCheck 健康检查
func (db *LocalDatabase) HealthCheck(ctx context.Context) error {
	if db.dataDir == "" {
		return nil
	}
	if _, err := os.Stat(db.dataDir); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	return nil
}

// Close 关闭连接（本地数据库无需关闭）
func (db *LocalDatabase) Close() error {
	return nil
}

// 私有辅助方法

func matchTeamMember(m models.TeamMember, f TeamMemberFilter) bool {
	switch {
	case f.UserID != "" && m.UserID != f.UserID:
		return false
	case f.OrganizationID != "" && m.OrganizationID != f.OrganizationID:
		return false
	case f.DepartmentID != "" && m.DepartmentID != f.DepartmentID:
		return false
	case f.SubfunctionID != "" && m.SubfunctionID != f.SubfunctionID:
		return false
	case f.SubfunctionIndex != nil && m.SubfunctionIndex != *f.SubfunctionIndex:
		return false
	case f.InvitedOnly && !m.Invited:
		return false
	}
	return true
}

func stampNew(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	*createdAt = now
	*updatedAt = now
}

func cloneDepartment(d models.Department) models.Department {
	d.Subfunctions = append([]models.Subfunction(nil), d.Subfunctions...)
	if d.Subfunctions == nil {
		d.Subfunctions = []models.Subfunction{}
	}
	return d
}

// 写入前先复制，save 失败时内存状态保持不变
func cloneOrganizations(orgs []models.Organization) []models.Organization {
	return append(make([]models.Organization, 0, len(orgs)+1), orgs...)
}

func cloneTeamMembers(members []models.TeamMember) []models.TeamMember {
	return append(make([]models.TeamMember, 0, len(members)+1), members...)
}

func (db *LocalDatabase) load(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(db.dataDir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (db *LocalDatabase) save(name string, v interface{}) error {
	if db.dataDir == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(db.dataDir, name), data, 0o644)
}

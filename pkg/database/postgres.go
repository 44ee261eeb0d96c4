package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"orgchart-backend/pkg/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresDatabase PostgreSQL数据库实现
type PostgresDatabase struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresDatabase 创建PostgreSQL数据库实例
func NewPostgresDatabase(ctx context.Context, dsn string, log *slog.Logger) (*PostgresDatabase, error) {
	if log == nil {
		log = slog.Default()
	}
	// 尝试多种连接策略来解决 Vercel Lambda 的 IPv6 问题
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	strategies := []string{
		dsn,
		addConnectionParams(dsn, "connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&connect_timeout=10"),
	}

	var lastErr error
	for i, strategy := range strategies {
		db, err := sql.Open("postgres", strategy)
		if err != nil {
			log.Warn("postgres open failed", "strategy", i+1, "error", err)
			lastErr = err
			continue
		}
		configurePool(db)

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Warn("postgres ping failed", "strategy", i+1, "error", err)
			db.Close()
			lastErr = err
			continue
		}

		log.Info("postgres connection established", "strategy", i+1)
		return &PostgresDatabase{db: db, log: log}, nil
	}

	return nil, fmt.Errorf("connect to postgres with all strategies: %w", lastErr)
}

// DB 返回底层连接，供迁移使用
func (p *PostgresDatabase) DB() *sql.DB {
	return p.db
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}
	// key=value 形式的 DSN 用空格拼接
	if !strings.Contains(dsn, "://") {
		return dsn + " " + strings.ReplaceAll(params, "&", " ")
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + params
}

const organizationColumns = `id, user_id, name, ceo_name, email, ceo_pic, industry, company_size, city, country,
	location, year_founded, organization_type, number_of_offices, hr_tools_used, hiring_level, work_model,
	created_at, updated_at`

// CreateOrganization 创建组织
func (p *PostgresDatabase) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := p.db.QueryRowContext(ctx, query,
		org.ID, org.UserID, org.Name, org.CEOName, org.Email, org.CEOPic, org.Industry, org.CompanySize,
		org.City, org.Country, org.Location, org.YearFounded, org.OrganizationType, org.NumberOfOffices,
		org.HRToolsUsed, org.HiringLevel, org.WorkModel,
	).Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create organization: %w", translatePQError(err))
	}
	return nil
}

// GetOrganizationByUser 获取用户的组织
func (p *PostgresDatabase) GetOrganizationByUser(ctx context.Context, userID string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE user_id = $1`

	var o models.Organization
	err := p.db.QueryRowContext(ctx, query, userID).Scan(
		&o.ID, &o.UserID, &o.Name, &o.CEOName, &o.Email, &o.CEOPic, &o.Industry, &o.CompanySize,
		&o.City, &o.Country, &o.Location, &o.YearFounded, &o.OrganizationType, &o.NumberOfOffices,
		&o.HRToolsUsed, &o.HiringLevel, &o.WorkModel, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("organization for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// UpdateOrganization 更新组织档案
func (p *PostgresDatabase) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, ceo_name = $2, email = $3, ceo_pic = $4, industry = $5, company_size = $6,
		    city = $7, country = $8, location = $9, year_founded = $10, organization_type = $11,
		    number_of_offices = $12, hr_tools_used = $13, hiring_level = $14, work_model = $15,
		    updated_at = NOW()
		WHERE id = $16
		RETURNING updated_at
	`
	err := p.db.QueryRowContext(ctx, query,
		org.Name, org.CEOName, org.Email, org.CEOPic, org.Industry, org.CompanySize,
		org.City, org.Country, org.Location, org.YearFounded, org.OrganizationType,
		org.NumberOfOffices, org.HRToolsUsed, org.HiringLevel, org.WorkModel, org.ID,
	).Scan(&org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("organization %s: %w", org.ID, ErrNotFound)
		}
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

const departmentColumns = `id, organization_id, user_id, department_name, hod_name, hod_email, hod_pic,
	role, department_details, subfunctions, created_at, updated_at`

// CreateDepartment 创建部门，子职能以 JSONB 保存
func (p *PostgresDatabase) CreateDepartment(ctx context.Context, dept *models.Department) error {
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	if dept.Subfunctions == nil {
		dept.Subfunctions = []models.Subfunction{}
	}
	subfunctions, err := json.Marshal(dept.Subfunctions)
	if err != nil {
		return fmt.Errorf("encode subfunctions: %w", err)
	}

	query := `
		INSERT INTO departments (` + departmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = p.db.QueryRowContext(ctx, query,
		dept.ID, dept.OrganizationID, dept.UserID, dept.DepartmentName, dept.HODName, dept.HODEmail,
		dept.HODPic, dept.Role, dept.DepartmentDetails, subfunctions,
	).Scan(&dept.CreatedAt, &dept.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create department: %w", translatePQError(err))
	}
	return nil
}

// GetDepartment 按ID获取部门
func (p *PostgresDatabase) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	dept, err := scanDepartment(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("department %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return dept, nil
}

// ListDepartments 列出部门
func (p *PostgresDatabase) ListDepartments(ctx context.Context, filter DepartmentFilter) ([]models.Department, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.OrganizationID != "" {
		args = append(args, filter.OrganizationID)
		conds = append(conds, fmt.Sprintf("organization_id = $%d", len(args)))
	}

	query := `SELECT ` + departmentColumns + ` FROM departments` + whereClause(conds) + ` ORDER BY seq ASC`
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, *dept)
	}
	return departments, rows.Err()
}

const teamMemberColumns = `id, name, email, role, report_to, organization_id, user_id, department_id,
	subfunction_id, subfunction_index, invited, invited_at, created_at, updated_at`

// CreateTeamMember 创建团队成员；唯一索引保证每个子职能只有一个组长
func (p *PostgresDatabase) CreateTeamMember(ctx context.Context, tm *models.TeamMember) error {
	if tm.ID == "" {
		tm.ID = uuid.NewString()
	}
	query := `
		INSERT INTO team_members (` + teamMemberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := p.db.QueryRowContext(ctx, query,
		tm.ID, tm.Name, tm.Email, string(tm.Role), tm.ReportTo, tm.OrganizationID, tm.UserID,
		tm.DepartmentID, tm.SubfunctionID, tm.SubfunctionIndex, tm.Invited, tm.InvitedAt,
	).Scan(&tm.CreatedAt, &tm.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create team member: %w", translatePQError(err))
	}
	return nil
}

// GetTeamMember 按ID获取团队成员
func (p *PostgresDatabase) GetTeamMember(ctx context.Context, id string) (*models.TeamMember, error) {
	query := `SELECT ` + teamMemberColumns + ` FROM team_members WHERE id = $1`
	tm, err := scanTeamMember(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("team member %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get team member: %w", err)
	}
	return tm, nil
}

// ListTeamMembers 列出团队成员，按创建顺序
func (p *PostgresDatabase) ListTeamMembers(ctx context.Context, filter TeamMemberFilter) ([]models.TeamMember, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.UserID != "" {
		add("user_id", filter.UserID)
	}
	if filter.OrganizationID != "" {
		add("organization_id", filter.OrganizationID)
	}
	if filter.DepartmentID != "" {
		add("department_id", filter.DepartmentID)
	}
	if filter.SubfunctionID != "" {
		add("subfunction_id", filter.SubfunctionID)
	}
	if filter.SubfunctionIndex != nil {
		add("subfunction_index", *filter.SubfunctionIndex)
	}
	if filter.InvitedOnly {
		conds = append(conds, "invited")
	}

	query := `SELECT ` + teamMemberColumns + ` FROM team_members` + whereClause(conds) + ` ORDER BY seq ASC`
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	members := []models.TeamMember{}
	for rows.Next() {
		tm, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, *tm)
	}
	return members, rows.Err()
}

// MarkTeamMemberInvited 标记为已邀请，invited_at 只在第一次设置
func (p *PostgresDatabase) MarkTeamMemberInvited(ctx context.Context, userID, id string) error {
	query := `
		UPDATE team_members
		SET invited = TRUE,
		    invited_at = COALESCE(invited_at, NOW()),
		    updated_at = CASE WHEN invited THEN updated_at ELSE NOW() END
		WHERE id = $1 AND user_id = $2
	`
	res, err := p.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark team member invited: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("team member %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTeamMember 删除团队成员
func (p *PostgresDatabase) DeleteTeamMember(ctx context.Context, userID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM team_members WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("team member %s: %w", id, ErrNotFound)
	}
	return nil
}

// HealthCheck 健康检查
func (p *PostgresDatabase) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close 关闭数据库连接
func (p *PostgresDatabase) Close() error {
	return p.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDepartment(row rowScanner) (*models.Department, error) {
	var (
		d            models.Department
		subfunctions []byte
	)
	err := row.Scan(
		&d.ID, &d.OrganizationID, &d.UserID, &d.DepartmentName, &d.HODName, &d.HODEmail, &d.HODPic,
		&d.Role, &d.DepartmentDetails, &subfunctions, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Subfunctions = []models.Subfunction{}
	if len(subfunctions) > 0 {
		if err := json.Unmarshal(subfunctions, &d.Subfunctions); err != nil {
			return nil, fmt.Errorf("decode subfunctions: %w", err)
		}
	}
	return &d, nil
}

func scanTeamMember(row rowScanner) (*models.TeamMember, error) {
	var (
		tm        models.TeamMember
		role      string
		invitedAt sql.NullTime
	)
	err := row.Scan(
		&tm.ID, &tm.Name, &tm.Email, &role, &tm.ReportTo, &tm.OrganizationID, &tm.UserID, &tm.DepartmentID,
		&tm.SubfunctionID, &tm.SubfunctionIndex, &tm.Invited, &invitedAt, &tm.CreatedAt, &tm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tm.Role = models.TeamMemberRole(role)
	if invitedAt.Valid {
		t := invitedAt.Time
		tm.InvitedAt = &t
	}
	return &tm, nil
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// translatePQError 将唯一约束冲突转换为 ErrDuplicate
func translatePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w", pqErr.Constraint, ErrDuplicate)
	}
	return err
}

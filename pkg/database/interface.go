package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"orgchart-backend/pkg/models"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("database: not found")
	// ErrDuplicate 违反唯一约束（组织/用户唯一、部门名唯一、每个子职能一个组长）
	ErrDuplicate = errors.New("database: duplicate key")
)

// DepartmentFilter 部门查询条件；UserID 为空表示不按用户限定
type DepartmentFilter struct {
	UserID         string
	OrganizationID string
}

// TeamMemberFilter 团队成员查询条件，空字段不参与过滤
type TeamMemberFilter struct {
	UserID           string
	OrganizationID   string
	DepartmentID     string
	SubfunctionID    string
	SubfunctionIndex *int
	InvitedOnly      bool
}

// DatabaseInterface 定义数据库访问接口
// 列表结果一律按创建时间升序返回，组长推导依赖这个顺序
type DatabaseInterface interface {
	// Organizations（每个用户最多一个）
	CreateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganizationByUser(ctx context.Context, userID string) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, org *models.Organization) error

	// Departments（子职能内嵌保存）
	CreateDepartment(ctx context.Context, dept *models.Department) error
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	ListDepartments(ctx context.Context, filter DepartmentFilter) ([]models.Department, error)

	// Team members
	CreateTeamMember(ctx context.Context, tm *models.TeamMember) error
	GetTeamMember(ctx context.Context, id string) (*models.TeamMember, error)
	ListTeamMembers(ctx context.Context, filter TeamMemberFilter) ([]models.TeamMember, error)
	// MarkTeamMemberInvited sets invited=true on a member owned by userID.
	// It returns ErrNotFound when no such member exists; already-invited members succeed.
	MarkTeamMemberInvited(ctx context.Context, userID, id string) error
	DeleteTeamMember(ctx context.Context, userID, id string) error

	// 健康检查
	HealthCheck(ctx context.Context) error

	// 关闭连接
	Close() error
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string
	UseLocalDB    bool
	LocalDataDir  string
	AutoMigrate   bool
	Debug         bool
}

// NewDatabase 根据配置选择数据库实现：PostgreSQL > MongoDB > 本地文件
func NewDatabase(ctx context.Context, config DatabaseConfig, log *slog.Logger) (DatabaseInterface, error) {
	if log == nil {
		log = slog.Default()
	}

	if config.PostgresDSN != "" {
		log.Info("using PostgreSQL database", "vercel", isVercelEnvironment())
		db, err := NewPostgresDatabase(ctx, config.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		if config.AutoMigrate {
			if err := Migrate(ctx, db.DB(), log); err != nil {
				db.Close()
				return nil, err
			}
		}
		return db, nil
	}

	if config.MongoURI != "" {
		log.Info("using MongoDB database", "database", config.MongoDatabase)
		db, err := NewMongoDatabase(ctx, config.MongoURI, config.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	if config.UseLocalDB {
		log.Info("using local file database", "dir", config.LocalDataDir)
		db, err := NewLocalDatabase(config.LocalDataDir)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	return nil, fmt.Errorf("no valid database configuration found: set POSTGRES_DSN, MONGODB_URI or USE_LOCAL_DB")
}

// isVercelEnvironment 检查 Vercel / Lambda 环境
func isVercelEnvironment() bool {
	return os.Getenv("VERCEL_ENV") != "" || os.Getenv("VERCEL_URL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"orgchart-backend/pkg/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	organizationsCollection = "organizations"
	departmentsCollection   = "departments"
	teamMembersCollection   = "teammembers"
	countersCollection      = "counters"
)

// MongoDatabase MongoDB数据库实现
type MongoDatabase struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

// 文档包装：seq 来自 counters 集合的单调序号，所有实例共用，列表按它排序
type departmentDoc struct {
	models.Department `bson:",inline"`
	Seq               int64 `bson:"seq"`
}

type teamMemberDoc struct {
	models.TeamMember `bson:",inline"`
	Seq               int64 `bson:"seq"`
}

// NewMongoDatabase 连接 MongoDB 并创建索引
func NewMongoDatabase(ctx context.Context, uri, dbName string, log *slog.Logger) (*MongoDatabase, error) {
	if log == nil {
		log = slog.Default()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	m := &MongoDatabase{client: client, db: client.Database(dbName), log: log}
	if err := m.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("mongodb connection established", "database", dbName)
	return m, nil
}

func (m *MongoDatabase) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		organizationsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		departmentsCollection: {
			{
				Keys:    bson.D{{Key: "organization", Value: 1}, {Key: "user", Value: 1}, {Key: "departmentName", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "seq", Value: 1}}},
		},
		teamMembersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "department", Value: 1}, {Key: "subfunctionId", Value: 1}, {Key: "seq", Value: 1}}},
			{
				// 每个子职能最多一个组长
				Keys: bson.D{{Key: "department", Value: 1}, {Key: "subfunctionId", Value: 1}},
				Options: options.Index().
					SetName("uniq_team_lead").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"role": string(models.RoleTeamLead)}),
			},
		},
	}

	for collection, idx := range indexes {
		if _, err := m.db.Collection(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}

// CreateOrganization 创建组织
func (m *MongoDatabase) CreateOrganization(ctx context.Context, org *models.Organization) error {
	stampNew(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if _, err := m.db.Collection(organizationsCollection).InsertOne(ctx, org); err != nil {
		return fmt.Errorf("create organization: %w", translateMongoError(err))
	}
	return nil
}

// GetOrganizationByUser 获取用户的组织
func (m *MongoDatabase) GetOrganizationByUser(ctx context.Context, userID string) (*models.Organization, error) {
	var org models.Organization
	err := m.db.Collection(organizationsCollection).FindOne(ctx, bson.M{"user": userID}).Decode(&org)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("organization for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &org, nil
}

// UpdateOrganization 更新组织档案
func (m *MongoDatabase) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now().UTC()
	res, err := m.db.Collection(organizationsCollection).ReplaceOne(ctx, bson.M{"_id": org.ID}, org)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("organization %s: %w", org.ID, ErrNotFound)
	}
	return nil
}

// CreateDepartment 创建部门
func (m *MongoDatabase) CreateDepartment(ctx context.Context, dept *models.Department) error {
	stampNew(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
	if dept.Subfunctions == nil {
		dept.Subfunctions = []models.Subfunction{}
	}
	seq, err := m.nextSeq(ctx, departmentsCollection)
	if err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	doc := departmentDoc{Department: *dept, Seq: seq}
	if _, err := m.db.Collection(departmentsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create department: %w", translateMongoError(err))
	}
	return nil
}

// GetDepartment 按ID获取部门
func (m *MongoDatabase) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	var doc departmentDoc
	err := m.db.Collection(departmentsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("department %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &doc.Department, nil
}

// ListDepartments 列出部门
func (m *MongoDatabase) ListDepartments(ctx context.Context, filter DepartmentFilter) ([]models.Department, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user"] = filter.UserID
	}
	if filter.OrganizationID != "" {
		query["organization"] = filter.OrganizationID
	}

	cursor, err := m.db.Collection(departmentsCollection).Find(ctx, query, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	var docs []departmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode departments: %w", err)
	}

	departments := make([]models.Department, 0, len(docs))
	for _, d := range docs {
		departments = append(departments, d.Department)
	}
	return departments, nil
}

// CreateTeamMember 创建团队成员；部分唯一索引拒绝第二个组长
func (m *MongoDatabase) CreateTeamMember(ctx context.Context, tm *models.TeamMember) error {
	stampNew(&tm.ID, &tm.CreatedAt, &tm.UpdatedAt)
	seq, err := m.nextSeq(ctx, teamMembersCollection)
	if err != nil {
		return fmt.Errorf("create team member: %w", err)
	}
	doc := teamMemberDoc{TeamMember: *tm, Seq: seq}
	if _, err := m.db.Collection(teamMembersCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create team member: %w", translateMongoError(err))
	}
	return nil
}

// GetTeamMember 按ID获取团队成员
func (m *MongoDatabase) GetTeamMember(ctx context.Context, id string) (*models.TeamMember, error) {
	var doc teamMemberDoc
	err := m.db.Collection(teamMembersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("team member %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get team member: %w", err)
	}
	return &doc.TeamMember, nil
}

// ListTeamMembers 列出团队成员
func (m *MongoDatabase) ListTeamMembers(ctx context.Context, filter TeamMemberFilter) ([]models.TeamMember, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user"] = filter.UserID
	}
	if filter.OrganizationID != "" {
		query["organization"] = filter.OrganizationID
	}
	if filter.DepartmentID != "" {
		query["department"] = filter.DepartmentID
	}
	if filter.SubfunctionID != "" {
		query["subfunctionId"] = filter.SubfunctionID
	}
	if filter.SubfunctionIndex != nil {
		query["subfunctionIndex"] = *filter.SubfunctionIndex
	}
	if filter.InvitedOnly {
		query["invited"] = true
	}

	cursor, err := m.db.Collection(teamMembersCollection).Find(ctx, query, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	var docs []teamMemberDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode team members: %w", err)
	}

	members := make([]models.TeamMember, 0, len(docs))
	for _, d := range docs {
		members = append(members, d.TeamMember)
	}
	return members, nil
}

// MarkTeamMemberInvited 标记为已邀请
func (m *MongoDatabase) MarkTeamMemberInvited(ctx context.Context, userID, id string) error {
	coll := m.db.Collection(teamMembersCollection)
	now := time.Now().UTC()

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "user": userID, "invited": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"invited": true, "invitedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return fmt.Errorf("mark team member invited: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// 已经邀请过的成员同样视为成功
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id, "user": userID})
	if err != nil {
		return fmt.Errorf("mark team member invited: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("team member %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTeamMember 删除团队成员
func (m *MongoDatabase) DeleteTeamMember(ctx context.Context, userID, id string) error {
	res, err := m.db.Collection(teamMembersCollection).DeleteOne(ctx, bson.M{"_id": id, "user": userID})
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("team member %s: %w", id, ErrNotFound)
	}
	return nil
}

// HealthCheck 健康检查
func (m *MongoDatabase) HealthCheck(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close 断开连接
func (m *MongoDatabase) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// nextSeq 原子递增计数器，顺序由服务器决定，与各实例的时钟无关
func (m *MongoDatabase) nextSeq(ctx context.Context, name string) (int64, error) {
	var c counterDoc
	err := m.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next %s seq: %w", name, err)
	}
	return c.Seq, nil
}

func translateMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%v: %w", err, ErrDuplicate)
	}
	return err
}

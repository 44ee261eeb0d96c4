package models

import "time"

// Subfunction 部门下的子职能
// ID 在部门创建时分配，之后不变；团队成员同时记录 ID 与位置索引
type Subfunction struct {
	ID      string `json:"_id" bson:"_id"`
	Name    string `json:"name" bson:"name"`
	Details string `json:"details" bson:"details"`
}

// Department 部门，子职能以有序列表内嵌保存
type Department struct {
	ID                string        `json:"_id" db:"id" bson:"_id"`
	DepartmentName    string        `json:"departmentName" db:"department_name" bson:"departmentName"`
	HODName           string        `json:"hodName" db:"hod_name" bson:"hodName"`
	HODEmail          string        `json:"hodEmail" db:"hod_email" bson:"hodEmail"`
	HODPic            string        `json:"hodPic" db:"hod_pic" bson:"hodPic"`
	Role              string        `json:"role" db:"role" bson:"role"`
	DepartmentDetails string        `json:"departmentDetails" db:"department_details" bson:"departmentDetails"`
	OrganizationID    string        `json:"organization" db:"organization_id" bson:"organization"`
	UserID            string        `json:"user" db:"user_id" bson:"user"`
	Subfunctions      []Subfunction `json:"subfunctions" db:"subfunctions" bson:"subfunctions"`
	CreatedAt         time.Time     `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// SubfunctionAt returns the subfunction at index, or false when index is out of range.
func (d *Department) SubfunctionAt(index int) (Subfunction, bool) {
	if d == nil || index < 0 || index >= len(d.Subfunctions) {
		return Subfunction{}, false
	}
	return d.Subfunctions[index], true
}

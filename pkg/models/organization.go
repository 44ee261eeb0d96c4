package models

import "time"

// Organization 组织（公司）档案，每个用户最多一个
type Organization struct {
	ID               string    `json:"_id" db:"id" bson:"_id"`
	Name             string    `json:"name" db:"name" bson:"name"`
	CEOName          string    `json:"ceoName" db:"ceo_name" bson:"ceoName"`
	Email            string    `json:"email" db:"email" bson:"email"`
	CEOPic           string    `json:"ceoPic" db:"ceo_pic" bson:"ceoPic"`
	Industry         string    `json:"industry" db:"industry" bson:"industry"`
	CompanySize      string    `json:"companySize" db:"company_size" bson:"companySize"`
	City             string    `json:"city,omitempty" db:"city" bson:"city"`
	Country          string    `json:"country,omitempty" db:"country" bson:"country"`
	Location         string    `json:"location" db:"location" bson:"location"`
	YearFounded      int       `json:"yearFounded" db:"year_founded" bson:"yearFounded"`
	OrganizationType string    `json:"organizationType" db:"organization_type" bson:"organizationType"`
	NumberOfOffices  int       `json:"numberOfOffices" db:"number_of_offices" bson:"numberOfOffices"`
	HRToolsUsed      string    `json:"hrToolsUsed" db:"hr_tools_used" bson:"hrToolsUsed"`
	HiringLevel      string    `json:"hiringLevel" db:"hiring_level" bson:"hiringLevel"`
	WorkModel        string    `json:"workModel" db:"work_model" bson:"workModel"`
	UserID           string    `json:"user" db:"user_id" bson:"user"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// OrganizationPatch is a partial profile update; nil fields are left untouched.
type OrganizationPatch struct {
	Name             *string `json:"name"`
	CEOName          *string `json:"ceoName"`
	Email            *string `json:"email"`
	Industry         *string `json:"industry"`
	CompanySize      *string `json:"companySize"`
	City             *string `json:"city"`
	Country          *string `json:"country"`
	Location         *string `json:"location"`
	YearFounded      *int    `json:"yearFounded"`
	OrganizationType *string `json:"organizationType"`
	NumberOfOffices  *int    `json:"numberOfOffices"`
	HRToolsUsed      *string `json:"hrToolsUsed"`
	HiringLevel      *string `json:"hiringLevel"`
	WorkModel        *string `json:"workModel"`
}

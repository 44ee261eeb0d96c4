package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/models"
	"orgchart-backend/pkg/storage"
)

var (
	emailPattern      = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	errNoPictureStore = errors.New("picture storage is not configured")
)

// OrganizationInput 创建组织的表单字段（multipart 中都是字符串）
type OrganizationInput struct {
	Name             string
	CEOName          string
	Email            string
	Industry         string
	CompanySize      string
	City             string
	Country          string
	Location         string
	YearFounded      string
	OrganizationType string
	NumberOfOffices  string
	HRToolsUsed      string
	HiringLevel      string
	WorkModel        string
	CEOPic           []byte
}

// CreateOrganization 创建组织，每个用户只能有一个
func (s *Service) CreateOrganization(ctx context.Context, userID string, in OrganizationInput) (*models.Organization, error) {
	org, err := in.toOrganization()
	if err != nil {
		return nil, err
	}
	org.UserID = userID

	if _, err := s.db.GetOrganizationByUser(ctx, userID); err == nil {
		return nil, ConflictError("User already has an organization", nil)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, InternalError(err)
	}

	pic, err := s.savePicture(ctx, "organizations", in.CEOPic)
	if err != nil {
		return nil, err
	}
	org.CEOPic = pic

	if err := s.db.CreateOrganization(ctx, org); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("User already has an organization", err)
		}
		return nil, InternalError(err)
	}

	s.log.Info("organization created", "organization_id", org.ID, "user_id", userID)
	return org, nil
}

// GetOrganization 获取当前用户的组织
func (s *Service) GetOrganization(ctx context.Context, userID string) (*models.Organization, error) {
	org, err := s.db.GetOrganizationByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Organization not found for the user.")
		}
		return nil, InternalError(err)
	}
	return org, nil
}

// UpdateOrganization applies a partial profile update.
func (s *Service) UpdateOrganization(ctx context.Context, userID string, patch models.OrganizationPatch) (*models.Organization, error) {
	org, err := s.GetOrganization(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 只有原本由城市和国家拼出的 location 才跟着改
	derivedLocation := org.Location == "" || org.Location == joinLocation(org.City, org.Country)

	fields := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"name", patch.Name, &org.Name},
		{"ceoName", patch.CEOName, &org.CEOName},
		{"email", patch.Email, &org.Email},
		{"industry", patch.Industry, &org.Industry},
		{"companySize", patch.CompanySize, &org.CompanySize},
		{"city", patch.City, &org.City},
		{"country", patch.Country, &org.Country},
		{"organizationType", patch.OrganizationType, &org.OrganizationType},
		{"hrToolsUsed", patch.HRToolsUsed, &org.HRToolsUsed},
		{"hiringLevel", patch.HiringLevel, &org.HiringLevel},
		{"workModel", patch.WorkModel, &org.WorkModel},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if v == "" {
			return nil, ValidationError(fmt.Sprintf("%s must not be empty", f.name))
		}
		*f.dst = v
	}

	if patch.Email != nil && !emailPattern.MatchString(org.Email) {
		return nil, ValidationError("Please enter a valid email address.")
	}
	if patch.YearFounded != nil {
		if *patch.YearFounded <= 0 {
			return nil, ValidationError("yearFounded must be a positive year")
		}
		org.YearFounded = *patch.YearFounded
	}
	if patch.NumberOfOffices != nil {
		if *patch.NumberOfOffices < 0 {
			return nil, ValidationError("numberOfOffices must not be negative")
		}
		org.NumberOfOffices = *patch.NumberOfOffices
	}

	switch {
	case patch.Location != nil && strings.TrimSpace(*patch.Location) != "":
		org.Location = strings.TrimSpace(*patch.Location)
	case derivedLocation && (patch.City != nil || patch.Country != nil):
		org.Location = joinLocation(org.City, org.Country)
	}

	if err := s.db.UpdateOrganization(ctx, org); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Organization not found for the user.")
		}
		return nil, InternalError(err)
	}
	return org, nil
}

func (in OrganizationInput) toOrganization() (*models.Organization, error) {
	org := &models.Organization{
		Name:             strings.TrimSpace(in.Name),
		CEOName:          strings.TrimSpace(in.CEOName),
		Email:            strings.TrimSpace(in.Email),
		Industry:         strings.TrimSpace(in.Industry),
		CompanySize:      strings.TrimSpace(in.CompanySize),
		City:             strings.TrimSpace(in.City),
		Country:          strings.TrimSpace(in.Country),
		Location:         strings.TrimSpace(in.Location),
		OrganizationType: strings.TrimSpace(in.OrganizationType),
		HRToolsUsed:      strings.TrimSpace(in.HRToolsUsed),
		HiringLevel:      strings.TrimSpace(in.HiringLevel),
		WorkModel:        strings.TrimSpace(in.WorkModel),
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", org.Name},
		{"ceoName", org.CEOName},
		{"email", org.Email},
		{"industry", org.Industry},
		{"companySize", org.CompanySize},
		{"yearFounded", strings.TrimSpace(in.YearFounded)},
		{"organizationType", org.OrganizationType},
		{"numberOfOffices", strings.TrimSpace(in.NumberOfOffices)},
		{"hrToolsUsed", org.HRToolsUsed},
		{"hiringLevel", org.HiringLevel},
		{"workModel", org.WorkModel},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if org.Location == "" && (org.City == "" || org.Country == "") {
		missing = append(missing, "city", "country")
	}
	if len(missing) > 0 {
		return nil, ValidationError("Please fill in all required fields: " + strings.Join(missing, ", "))
	}

	if !emailPattern.MatchString(org.Email) {
		return nil, ValidationError("Please enter a valid email address.")
	}

	year, err := strconv.Atoi(strings.TrimSpace(in.YearFounded))
	if err != nil || year <= 0 {
		return nil, ValidationError("yearFounded must be a positive year")
	}
	offices, err := strconv.Atoi(strings.TrimSpace(in.NumberOfOffices))
	if err != nil || offices < 0 {
		return nil, ValidationError("numberOfOffices must be a non-negative number")
	}
	org.YearFounded = year
	org.NumberOfOffices = offices

	if org.Location == "" {
		org.Location = joinLocation(org.City, org.Country)
	}
	return org, nil
}

func joinLocation(city, country string) string {
	switch {
	case city == "":
		return country
	case country == "":
		return city
	default:
		return city + ", " + country
	}
}

func classifyPictureError(err error) error {
	if errors.Is(err, storage.ErrInvalidImage) {
		return &Error{Kind: KindValidation, Message: "invalid image", Err: err}
	}
	return InternalError(err)
}

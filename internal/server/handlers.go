package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/scholarship-matcher/internal/eligibility"
	"github.com/spigell/scholarship-matcher/internal/logger"
	"github.com/spigell/scholarship-matcher/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

type createStudentRequest struct {
	ID                    string                `json:"id"`
	Email                 string                `json:"email"`
	Name                  string                `json:"name"`
	GPA                   *float64              `json:"gpa" binding:"required"`
	EnrollmentStatus      string                `json:"enrollment_status" binding:"required"`
	Major                 string                `json:"major" binding:"required"`
	GraduationYear        int                   `json:"graduation_year"`
	Gender                string                `json:"gender"`
	Ethnicity             eligibility.StringSet `json:"ethnicity"`
	CitizenshipStatus     string                `json:"citizenship_status"`
	HouseholdIncome       *float64              `json:"household_income"`
	FinancialNeed         bool                  `json:"financial_need"`
	FirstGeneration       bool                  `json:"first_generation"`
	MilitaryAffiliation   string                `json:"military_affiliation"`
	Residency             string                `json:"residency"`
	CommunityServiceHours float64               `json:"community_service_hours"`
	State                 string                `json:"state"`
}

type createStudentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type scholarshipsResponse struct {
	Scholarships []*eligibility.Scholarship `json:"scholarships"`
	Total        int                        `json:"total"`
}

func (r *createStudentRequest) student() *eligibility.Student {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = uuid.NewString()
	}
	ethnicity := r.Ethnicity
	if ethnicity == nil {
		ethnicity = eligibility.StringSet{}
	}

	return &eligibility.Student{
		ID:                    id,
		Email:                 r.Email,
		Name:                  r.Name,
		GraduationYear:        r.GraduationYear,
		HouseholdIncome:       r.HouseholdIncome,
		State:                 r.State,
		GPA:                   *r.GPA,
		EnrollmentStatus:      r.EnrollmentStatus,
		Major:                 r.Major,
		Gender:                r.Gender,
		Ethnicity:             ethnicity,
		CitizenshipStatus:     r.CitizenshipStatus,
		FinancialNeed:         r.FinancialNeed,
		FirstGeneration:       r.FirstGeneration,
		MilitaryAffiliation:   r.MilitaryAffiliation,
		Residency:             r.Residency,
		CommunityServiceHours: r.CommunityServiceHours,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) createStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid student data: " + err.Error()})
		return
	}

	st := req.student()
	if err := s.store.CreateStudent(c.Request.Context(), st); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, errorResponse{Error: "Student already exists"})
			return
		}
		s.internalError(c, "create student", err)
		return
	}

	s.logger.Info("student created", logger.MatchFields(st.ID, "")...)
	c.JSON(http.StatusOK, createStudentResponse{
		ID:        st.ID,
		Name:      st.Name,
		Email:     st.Email,
		CreatedAt: st.CreatedAt,
	})
}

func (s *Server) listScholarships(c *gin.Context) {
	scholarships, err := s.store.ListScholarships(c.Request.Context())
	if err != nil {
		s.internalError(c, "list scholarships", err)
		return
	}

	c.JSON(http.StatusOK, scholarshipsResponse{Scholarships: scholarships, Total: len(scholarships)})
}

func (s *Server) studentMatches(c *gin.Context) {
	report, err := s.matcher.Match(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "Student not found"})
			return
		}
		s.internalError(c, "match student", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	_ = c.Error(err)
	s.logger.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"saggita/internal/models"
	"saggita/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeGroups struct {
	groups    map[int64]*models.Group
	occupancy map[int64]int
}

func (f *fakeGroups) GetByID(_ context.Context, id int64) (*models.Group, error) {
	return f.groups[id], nil
}

func (f *fakeGroups) Occupancy(_ context.Context, id int64) (int, error) {
	return f.occupancy[id], nil
}

func (f *fakeGroups) ListWithOccupancy(_ context.Context, _ bool) ([]models.GroupOccupancy, error) {
	var out []models.GroupOccupancy
	for id, g := range f.groups {
		out = append(out, models.GroupOccupancy{Group: *g, Registered: f.occupancy[id]})
	}
	return out, nil
}

func (f *fakeGroups) ListActiveSchedules(_ context.Context) ([]models.Schedule, error) {
	return nil, nil
}

type fakeRegs struct {
	regs   map[string]*models.Registration
	nextID int64
}

func (f *fakeRegs) Create(_ context.Context, reg *models.Registration) error {
	f.nextID++
	reg.ID = f.nextID
	reg.Status = models.RegStatusNew
	f.regs[reg.PaymentRef] = reg
	return nil
}

func (f *fakeRegs) PaymentRefExists(_ context.Context, ref string) (bool, error) {
	_, ok := f.regs[ref]
	return ok, nil
}

func (f *fakeRegs) GetByID(_ context.Context, id int64) (*models.Registration, error) {
	for _, reg := range f.regs {
		if reg.ID == id {
			return reg, nil
		}
	}
	return nil, nil
}

func (f *fakeRegs) GetByPaymentRef(_ context.Context, ref string) (*models.Registration, error) {
	return f.regs[ref], nil
}

func (f *fakeRegs) List(_ context.Context, _ int64, _ string, _, _ int) ([]models.Registration, error) {
	return nil, nil
}

func (f *fakeRegs) UpdateStatus(_ context.Context, _ int64, _, _, _ *string) error { return nil }

func (f *fakeRegs) Promote(_ context.Context, id int64) (*models.Registration, error) {
	return f.GetByID(nil, id)
}

func (f *fakeRegs) RecordAction(_ context.Context, _ int64, _ string) error { return nil }

func (f *fakeRegs) SetPaymentStatus(_ context.Context, _ int64, _ string) error { return nil }

type fakeLocations struct{}

func (f *fakeLocations) GetByID(_ context.Context, _ int64) (*models.Location, error) {
	return &models.Location{ID: 7, City: "Warszawa"}, nil
}

type fakePlans struct{}

func (f *fakePlans) GetByID(_ context.Context, id int64) (*models.PricePlan, error) {
	if id != 3 {
		return nil, nil
	}
	return &models.PricePlan{ID: 3, Price: 219, SignupFee: 50, Active: true}, nil
}

func (f *fakePlans) ListActive(_ context.Context) ([]models.PricePlan, error) { return nil, nil }

func int64p(v int64) *int64 { return &v }
func intp(v int) *int       { return &v }

func setupRouter() (*gin.Engine, *fakeRegs) {
	gin.SetMode(gin.TestMode)

	groups := &fakeGroups{
		groups:    map[int64]*models.Group{1: {ID: 1, Name: "Dorośli", LocationID: int64p(7), MaxCapacity: intp(20)}},
		occupancy: map[int64]int{1: 5},
	}
	regs := &fakeRegs{regs: map[string]*models.Registration{}}

	services := &service.Services{
		Capacity:  service.NewCapacityService(groups),
		Intake:    service.NewIntakeService(regs, groups, &fakeLocations{}, &fakePlans{}, nil, service.BankDetails{Account: "PL00", Name: "Saggita"}),
		Lifecycle: service.NewLifecycleService(regs, nil),
	}
	h := New(services)

	r := gin.New()
	api := r.Group("/api")
	{
		api.GET("/groups/:id/capacity", h.GetGroupCapacity)
		api.POST("/registrations", h.Register)
		api.POST("/registrations/action", h.FinalizeAction)
		api.GET("/registrations/status/:ref", h.GetRegistrationStatus)
	}
	return r, regs
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	r, _ := setupRouter()

	w := postJSON(r, "/api/registrations", models.RegisterRequest{
		FirstName:    "Jan",
		LastName:     "Kowalski",
		Email:        "jan@example.com",
		Phone:        "+48 600 100 200",
		GroupID:      1,
		PricePlanID:  int64p(3),
		ConsentData:  true,
		ConsentRules: true,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.RegisterResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.PaymentRef)
	assert.Equal(t, 269.0, resp.TotalAmount)
	assert.Equal(t, "PL00", resp.BankAccount)
}

func TestRegisterEndpoint_ValidationError(t *testing.T) {
	r, _ := setupRouter()

	w := postJSON(r, "/api/registrations", models.RegisterRequest{
		FirstName: "Jan",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["field"])
}

func TestRegisterEndpoint_UnknownGroup(t *testing.T) {
	r, _ := setupRouter()

	w := postJSON(r, "/api/registrations", models.RegisterRequest{
		FirstName:    "Jan",
		LastName:     "Kowalski",
		Email:        "jan@example.com",
		Phone:        "+48 600 100 200",
		GroupID:      99,
		PricePlanID:  int64p(3),
		ConsentData:  true,
		ConsentRules: true,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCapacityEndpoint(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/api/groups/1/capacity", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.CapacityResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Occupied)
	assert.True(t, resp.HasRoom)
}

func TestCapacityEndpoint_BadID(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/api/groups/abc/capacity", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	r, regs := setupRouter()
	regs.regs["KM-TEST22"] = &models.Registration{
		ID: 7, PaymentRef: "KM-TEST22", FirstName: "Ewa",
		Status: models.RegStatusConfirmed, PaymentStatus: models.PaymentPaid,
	}

	req, _ := http.NewRequest("GET", "/api/registrations/status/KM-TEST22", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RegistrationStatusResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ewa", resp.FirstName)
	assert.Equal(t, models.RegStatusConfirmed, resp.Status)
}

func TestStatusEndpoint_NotFound(t *testing.T) {
	r, _ := setupRouter()

	req, _ := http.NewRequest("GET", "/api/registrations/status/KM-MISSING", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFinalizeActionEndpoint(t *testing.T) {
	r, regs := setupRouter()
	regs.regs["KM-TEST33"] = &models.Registration{
		ID: 8, PaymentRef: "KM-TEST33", FirstName: "Adam",
		Status: models.RegStatusNew, PaymentStatus: models.PaymentUnpaid,
	}

	w := postJSON(r, "/api/registrations/action", models.FinalizeActionRequest{
		PaymentRef: "KM-TEST33",
		Action:     models.ActionDownloadDoc,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.FinalizeActionResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.NotNil(t, resp.DueDate)
}

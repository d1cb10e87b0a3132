package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/meinhoongagan/spa-booking/availability"
	"github.com/meinhoongagan/spa-booking/config"
	"github.com/meinhoongagan/spa-booking/controllers"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

var brt = time.FixedZone("BRT", -3*60*60)

type fakeUploader struct {
	publicID string
}

func (f *fakeUploader) Upload(ctx context.Context, file interface{}, publicID, folder string) (string, error) {
	f.publicID = publicID
	return "https://cdn.example.com/" + folder + "/" + publicID + ".jpg", nil
}

type testEnv struct {
	app      *fiber.App
	admin    string
	client   string
	other    string
	service  models.Service
	monday   time.Time
	uploader *fakeUploader
}

// upcomingMonday is at least a week away so bookings are always in the future.
func upcomingMonday() time.Time {
	d := time.Now().In(brt).AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, brt)
}

func newTestEnv(t *testing.T, loginRate int) *testEnv {
	t.Helper()
	database, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	require.NoError(t, db.SeedRoles(database))
	db.DB = database

	breakStart, breakEnd := "12:00", "13:00"
	require.NoError(t, database.Create(&models.WeeklySchedule{
		DayOfWeek:    models.Monday,
		StartTime:    "08:00",
		EndTime:      "18:00",
		BreakStart:   &breakStart,
		BreakEnd:     &breakEnd,
		SlotDuration: 60,
		Active:       true,
	}).Error)

	service := models.Service{Name: "Massagem relaxante", DurationMinutes: 60, Price: 150, ReturnPrice: 120, Active: true}
	require.NoError(t, database.Create(&service).Error)

	env := &testEnv{service: service, monday: upcomingMonday(), uploader: &fakeUploader{}}
	env.admin = createUser(t, "admin@spa.test", models.RoleAdmin)
	env.client = createUser(t, "ana@spa.test", models.RoleClient)
	env.other = createUser(t, "bia@spa.test", models.RoleClient)

	controllers.Configure(controllers.Dependencies{
		Generator:    availability.NewGenerator(availability.NewGormStore(database), brt),
		Guard:        availability.NewGuard(database),
		Uploader:     env.uploader,
		JWTSecret:    testSecret,
		Location:     brt,
		MaxDaysAhead: 90,
	})

	env.app = fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	Setup(env.app, &config.Config{JWTSecret: testSecret, LoginRatePerMinute: loginRate, Location: brt})
	return env
}

func createUser(t *testing.T, email, roleName string) string {
	t.Helper()
	var role models.Role
	require.NoError(t, db.DB.Where("name = ?", roleName).First(&role).Error)

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{Name: email, Email: email, Password: string(hashed), RoleID: role.ID}
	require.NoError(t, db.DB.Create(&user).Error)

	token, _, err := utils.GenerateTokens(user.ID, user.Email, role.Name, testSecret)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (e *testEnv) at(h, m int) string {
	return time.Date(e.monday.Year(), e.monday.Month(), e.monday.Day(), h, m, 0, 0, brt).Format(time.RFC3339)
}

func (e *testEnv) book(t *testing.T, token string, h, m int) (int, []byte) {
	return e.do(t, http.MethodPost, "/appointments", token, fiber.Map{
		"service_id":   e.service.ID,
		"scheduled_at": e.at(h, m),
	})
}

type slotsResponse struct {
	Slots     []availability.Slot `json:"slots"`
	DaysAhead int                 `json:"daysAhead"`
}

func (e *testEnv) slots(t *testing.T) slotsResponse {
	t.Helper()
	status, body := e.do(t, http.MethodGet, "/availability?daysAhead=1&dateStart="+e.monday.Format(models.DateLayout), "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var out slotsResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func decodeError(t *testing.T, body []byte) utils.ErrorResponse {
	t.Helper()
	var out utils.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t, 100)

	got := env.slots(t)
	assert.Equal(t, 1, got.DaysAhead)
	require.Len(t, got.Slots, 9)
	assert.Equal(t, 8, got.Slots[0].Start.In(brt).Hour())
	assert.Equal(t, 13, got.Slots[4].Start.In(brt).Hour())

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"default days", "dateStart=" + env.monday.Format(models.DateLayout), http.StatusOK},
		{"rfc3339 date", "dateStart=" + env.monday.Format(time.RFC3339), http.StatusOK},
		{"missing date", "daysAhead=3", http.StatusBadRequest},
		{"bad date", "dateStart=03-03-2025", http.StatusBadRequest},
		{"zero days", "dateStart=2025-03-03&daysAhead=0", http.StatusBadRequest},
		{"too many days", "dateStart=2025-03-03&daysAhead=91", http.StatusBadRequest},
		{"bad duration", "dateStart=2025-03-03&slotDuration=abc", http.StatusBadRequest},
		{"zero duration keeps template", "dateStart=2025-03-03&slotDuration=0", http.StatusOK},
		{"negative duration", "dateStart=2025-03-03&slotDuration=-30", http.StatusBadRequest},
		{"duration longer than a day", "dateStart=2025-03-03&slotDuration=1441", http.StatusBadRequest},
		{"overflowing duration", "dateStart=2025-03-03&slotDuration=9007199254740992", http.StatusBadRequest},
		{"unknown service", "dateStart=2025-03-03&serviceId=999", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodGet, "/availability?"+tt.query, "", nil)
			assert.Equal(t, tt.want, status, string(body))
		})
	}

	status, body := env.do(t, http.MethodGet, "/availability?dateStart=2025-03-03", "", nil)
	require.Equal(t, http.StatusOK, status)
	var week slotsResponse
	require.NoError(t, json.Unmarshal(body, &week))
	assert.Equal(t, 7, week.DaysAhead)
}

func TestAvailabilityDurationOverride(t *testing.T) {
	env := newTestEnv(t, 100)

	status, body := env.do(t, http.MethodGet, "/availability?daysAhead=1&slotDuration=90&dateStart="+env.monday.Format(models.DateLayout), "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var got slotsResponse
	require.NoError(t, json.Unmarshal(body, &got))

	// 11:00-12:30 would cross the break, so the grid resumes at 13:00
	var starts []string
	for _, slot := range got.Slots {
		assert.Equal(t, 90*time.Minute, slot.End.Sub(slot.Start))
		starts = append(starts, slot.Start.In(brt).Format(models.ClockLayout))
	}
	assert.Equal(t, []string{"08:00", "09:30", "13:00", "14:30", "16:00"}, starts)
}

func TestAvailabilityServiceLookupFailure(t *testing.T) {
	env := newTestEnv(t, 100)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	status, body := env.do(t, http.MethodGet, fmt.Sprintf("/availability?serviceId=%d&dateStart=%s", env.service.ID, env.monday.Format(models.DateLayout)), "", nil)
	assert.Equal(t, http.StatusInternalServerError, status, string(body))
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t, 100)

	status, body := env.book(t, env.client, 10, 0)
	require.Equal(t, http.StatusCreated, status, string(body))
	var created models.Appointment
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, models.TypeFirst, created.Type)
	assert.EqualValues(t, 150, created.Price)

	status, body = env.book(t, env.other, 10, 30)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, controllers.ConflictMessage, decodeError(t, body).Message)

	for _, s := range env.slots(t).Slots {
		assert.Equal(t, s.Start.In(brt).Hour() != 10, s.Available, s.Start.String())
	}

	// touching the booked interval is fine
	status, body = env.book(t, env.other, 11, 0)
	assert.Equal(t, http.StatusCreated, status, string(body))

	status, _ = env.book(t, env.client, 7, 0)
	assert.Equal(t, http.StatusConflict, status, "before opening")
	status, _ = env.book(t, env.client, 11, 30)
	assert.Equal(t, http.StatusConflict, status, "crosses the break")

	status, _ = env.do(t, http.MethodPost, "/appointments", env.client, fiber.Map{"service_id": env.service.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, http.MethodPost, "/appointments", env.client, fiber.Map{"service_id": 999, "scheduled_at": env.at(15, 0)})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodPost, "/appointments", env.client, fiber.Map{"service_id": env.service.ID, "scheduled_at": env.at(15, 0), "type": "VIP"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, http.MethodPost, "/appointments", env.client, fiber.Map{"service_id": env.service.ID, "scheduled_at": "2001-01-01T10:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPost, "/appointments", env.client, fiber.Map{
		"service_id": env.service.ID, "scheduled_at": env.at(15, 0), "type": "RETURN",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	require.NoError(t, json.Unmarshal(body, &created))
	assert.EqualValues(t, 120, created.Price)

	status, _ = env.book(t, "", 16, 0)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestConcurrentBookingsExactlyOneSucceeds(t *testing.T) {
	env := newTestEnv(t, 100)

	const attempts = 6
	statuses := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := env.client
			if i%2 == 1 {
				token = env.other
			}
			statuses[i], _ = env.book(t, token, 10, 0)
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCancelFreesSlot(t *testing.T) {
	env := newTestEnv(t, 100)

	status, body := env.book(t, env.client, 9, 0)
	require.Equal(t, http.StatusCreated, status, string(body))
	var appt models.Appointment
	require.NoError(t, json.Unmarshal(body, &appt))
	path := fmt.Sprintf("/appointments/%d", appt.ID)

	status, _ = env.do(t, http.MethodGet, path, env.other, nil)
	assert.Equal(t, http.StatusNotFound, status, "other clients cannot see it")
	status, _ = env.do(t, http.MethodPatch, path+"/cancel", env.other, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodPatch, path+"/cancel", env.client, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &appt))
	assert.Equal(t, models.StatusCancelled, appt.Status)

	status, _ = env.do(t, http.MethodPatch, path+"/cancel", env.client, nil)
	assert.Equal(t, http.StatusConflict, status, "already cancelled")

	status, body = env.book(t, env.other, 9, 0)
	assert.Equal(t, http.StatusCreated, status, string(body))

	status, body = env.do(t, http.MethodGet, "/appointments/me", env.client, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []models.Appointment
	require.NoError(t, json.Unmarshal(body, &mine))
	assert.Len(t, mine, 1)
}

func TestAdminAppointmentManagement(t *testing.T) {
	env := newTestEnv(t, 100)

	status, body := env.book(t, env.client, 9, 0)
	require.Equal(t, http.StatusCreated, status, string(body))
	var appt models.Appointment
	require.NoError(t, json.Unmarshal(body, &appt))
	path := fmt.Sprintf("/appointments/%d", appt.ID)
	status, _ = env.book(t, env.other, 14, 0)
	require.Equal(t, http.StatusCreated, status)

	status, _ = env.do(t, http.MethodPatch, path+"/status", env.client, fiber.Map{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(t, http.MethodGet, "/appointments", env.client, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodPatch, path+"/status", env.admin, fiber.Map{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, status, string(body))
	status, _ = env.do(t, http.MethodPatch, path+"/status", env.admin, fiber.Map{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, http.MethodPatch, path+"/reschedule", env.admin, fiber.Map{"scheduled_at": env.at(14, 30)})
	assert.Equal(t, http.StatusConflict, status, string(body))
	status, body = env.do(t, http.MethodPatch, path+"/reschedule", env.admin, fiber.Map{"scheduled_at": env.at(16, 0)})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &appt))
	assert.Equal(t, 16, appt.ScheduledAt.In(brt).Hour())
	assert.Equal(t, 17, appt.EndAt.In(brt).Hour())

	status, body = env.do(t, http.MethodGet, "/appointments?status=CONFIRMED", env.admin, nil)
	require.Equal(t, http.StatusOK, status)
	var all []models.Appointment
	require.NoError(t, json.Unmarshal(body, &all))
	require.Len(t, all, 1)
	assert.Empty(t, all[0].User.Password)

	status, body = env.do(t, http.MethodPost, "/appointments", env.admin, fiber.Map{
		"user_id": all[0].UserID, "service_id": env.service.ID, "scheduled_at": env.at(8, 0),
	})
	assert.Equal(t, http.StatusCreated, status, string(body))

	status, body = env.do(t, http.MethodGet, "/admin/dashboard", env.admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var overview map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &overview))
	assert.EqualValues(t, 3, overview["total_appointments"])
	assert.EqualValues(t, 1, overview["confirmed_count"])
	assert.EqualValues(t, 2, overview["pending_count"])

	status, body = env.do(t, http.MethodGet, "/admin/dashboard/recent?limit=2", env.admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var recent []models.Appointment
	require.NoError(t, json.Unmarshal(body, &recent))
	assert.Len(t, recent, 2)

	status, body = env.do(t, http.MethodGet, "/admin/dashboard/revenue?range=bogus", env.admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var revenue struct {
		Data    []map[string]interface{} `json:"data"`
		Summary map[string]interface{}   `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(body, &revenue))
	assert.Empty(t, revenue.Data)
	assert.Equal(t, "week", revenue.Summary["time_range"])
	assert.EqualValues(t, 0, revenue.Summary["total_revenue"])
}

func TestScheduleAdministration(t *testing.T) {
	env := newTestEnv(t, 100)

	tuesday := fiber.Map{"start_time": "09:00", "end_time": "12:00", "slot_duration": 30}
	status, _ := env.do(t, http.MethodPut, "/admin/schedules/2", env.client, tuesday)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodPut, "/admin/schedules/2", env.admin, tuesday)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodGet, "/availability?daysAhead=2&dateStart="+env.monday.Format(models.DateLayout), "", nil)
	require.Equal(t, http.StatusOK, status)
	var got slotsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.Slots, 9+6)

	status, _ = env.do(t, http.MethodPut, "/admin/schedules/2", env.admin, fiber.Map{
		"start_time": "09:00", "end_time": "12:00", "slot_duration": 30, "break_start": "11:30", "break_end": "12:30",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, http.MethodPut, "/admin/schedules/9", env.admin, tuesday)
	assert.Equal(t, http.StatusBadRequest, status)

	// deactivate monday; the row stays
	status, _ = env.do(t, http.MethodPut, "/admin/schedules/1", env.admin, fiber.Map{
		"start_time": "08:00", "end_time": "18:00", "slot_duration": 60, "active": false,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, env.slots(t).Slots)

	status, body = env.do(t, http.MethodGet, "/admin/schedules", env.admin, nil)
	require.Equal(t, http.StatusOK, status)
	var schedules []models.WeeklySchedule
	require.NoError(t, json.Unmarshal(body, &schedules))
	require.Len(t, schedules, 2)
	assert.False(t, schedules[0].Active)
	assert.Nil(t, schedules[0].BreakStart)
}

func TestBlockedDates(t *testing.T) {
	env := newTestEnv(t, 100)
	day := env.monday.Format(models.DateLayout)

	status, body := env.do(t, http.MethodPost, "/admin/blocked-dates", env.admin, fiber.Map{"date": day, "reason": "Feriado"})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		BlockedDate models.BlockedDate `json:"blocked_date"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	assert.Empty(t, env.slots(t).Slots)
	status, _ = env.book(t, env.client, 10, 0)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPost, "/admin/blocked-dates", env.admin, fiber.Map{"date": day})
	assert.Equal(t, http.StatusConflict, status)
	status, _ = env.do(t, http.MethodPost, "/admin/blocked-dates", env.admin, fiber.Map{"date": "soon"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodGet, "/admin/blocked-dates?from="+day+"&to="+day, env.admin, nil)
	require.Equal(t, http.StatusOK, status)
	var list []models.BlockedDate
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	status, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/admin/blocked-dates/%d", created.BlockedDate.ID), env.admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Len(t, env.slots(t).Slots, 9)
}

func TestBlockedDateReportsAffectedAppointments(t *testing.T) {
	env := newTestEnv(t, 100)
	day := env.monday.Format(models.DateLayout)

	status, body := env.book(t, env.client, 10, 0)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = env.do(t, http.MethodPost, "/admin/blocked-dates", env.admin, fiber.Map{"date": day})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		Affected int64 `json:"affected_appointments"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.EqualValues(t, 1, created.Affected)
}

func TestBlockedDateCountFailureRollsBack(t *testing.T) {
	env := newTestEnv(t, 100)
	require.NoError(t, db.DB.Migrator().DropTable(&models.Appointment{}))

	status, body := env.do(t, http.MethodPost, "/admin/blocked-dates", env.admin, fiber.Map{"date": env.monday.Format(models.DateLayout)})
	assert.Equal(t, http.StatusInternalServerError, status, string(body))

	var stored int64
	require.NoError(t, db.DB.Model(&models.BlockedDate{}).Count(&stored).Error)
	assert.Zero(t, stored)
}

func TestServices(t *testing.T) {
	env := newTestEnv(t, 100)

	status, body := env.do(t, http.MethodPost, "/services", env.admin, fiber.Map{
		"name": "Limpeza de pele", "duration_minutes": 90, "price": 200,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var svc models.Service
	require.NoError(t, json.Unmarshal(body, &svc))

	status, _ = env.do(t, http.MethodPost, "/services", env.client, fiber.Map{"name": "x", "duration_minutes": 30})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(t, http.MethodPost, "/services", env.admin, fiber.Map{"name": "x", "duration_minutes": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, http.MethodPost, "/services", env.admin, fiber.Map{"name": "x", "duration_minutes": int64(1) << 53})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/availability?daysAhead=1&serviceId=%d&dateStart=%s", svc.ID, env.monday.Format(models.DateLayout)), "", nil)
	require.Equal(t, http.StatusOK, status)
	var got slotsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	for _, s := range got.Slots {
		assert.Equal(t, 90*time.Minute, s.End.Sub(s.Start))
	}

	status, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/services/%d", svc.ID), env.admin, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = env.do(t, http.MethodGet, "/services", "", nil)
	require.Equal(t, http.StatusOK, status)
	var services []models.Service
	require.NoError(t, json.Unmarshal(body, &services))
	assert.Len(t, services, 1, "deactivated service is hidden")

	status, _ = env.do(t, http.MethodPost, "/appointments", env.client, fiber.Map{"service_id": svc.ID, "scheduled_at": env.at(9, 0)})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServiceImageUpload(t *testing.T) {
	env := newTestEnv(t, 100)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("image", "cover.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/services/%d/image", env.service.ID), &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.admin)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var svc models.Service
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&svc))
	assert.Contains(t, svc.ImageURL, "https://cdn.example.com/spa/services/")
	assert.Contains(t, env.uploader.publicID, fmt.Sprintf("service-%d-", env.service.ID))
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, 100)

	status, body := env.do(t, http.MethodPost, "/auth/register", "", fiber.Map{
		"name": "Carla", "email": "Carla@Example.com", "password": "segredo1",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var user models.User
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, "carla@example.com", user.Email)
	assert.Empty(t, user.Password)

	status, _ = env.do(t, http.MethodPost, "/auth/register", "", fiber.Map{
		"name": "Carla", "email": "carla@example.com", "password": "segredo1",
	})
	assert.Equal(t, http.StatusConflict, status)
	status, _ = env.do(t, http.MethodPost, "/auth/register", "", fiber.Map{"name": "X", "email": "x@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "carla@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "carla@example.com", "password": "segredo1"})
	require.Equal(t, http.StatusOK, status, string(body))
	var login struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(body, &login))

	status, body = env.do(t, http.MethodGet, "/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, models.RoleClient, user.Role.Name)

	status, _ = env.do(t, http.MethodGet, "/auth/me", login.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "refresh tokens are not access tokens")

	status, body = env.do(t, http.MethodPost, "/auth/refresh", "", fiber.Map{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, status, string(body))
	status, _ = env.do(t, http.MethodPost, "/auth/refresh", "", fiber.Map{"refreshToken": login.Token})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.book(t, login.Token, 10, 0)
	assert.Equal(t, http.StatusCreated, status)
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, 2)

	creds := fiber.Map{"email": "nobody@example.com", "password": "x"}
	for i := 0; i < 2; i++ {
		status, _ := env.do(t, http.MethodPost, "/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, _ := env.do(t, http.MethodPost, "/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestRBACRoutes(t *testing.T) {
	env := newTestEnv(t, 100)

	status, _ := env.do(t, http.MethodGet, "/rbac/roles", env.client, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodGet, "/rbac/roles", env.admin, nil)
	require.Equal(t, http.StatusOK, status)
	var roles []models.Role
	require.NoError(t, json.Unmarshal(body, &roles))
	assert.Len(t, roles, 2)

	status, body = env.do(t, http.MethodPost, "/rbac/roles", env.admin, fiber.Map{"name": "reception"})
	require.Equal(t, http.StatusCreated, status, string(body))
	status, _ = env.do(t, http.MethodPost, "/rbac/roles", env.admin, fiber.Map{"name": "reception"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPost, "/rbac/permissions", env.admin, fiber.Map{"resource": "reports", "action": "read"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, 100)

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status, string(body))

	status, _ = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/servicemarket/config"
	"github.com/meinhoongagan/servicemarket/db/dbtest"
	"github.com/meinhoongagan/servicemarket/events"
	"github.com/meinhoongagan/servicemarket/media"
	"github.com/meinhoongagan/servicemarket/models"
	"github.com/meinhoongagan/servicemarket/redis"
	"github.com/meinhoongagan/servicemarket/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

const testSecret = "test-secret"

type capturingSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *capturingSender) SendOTP(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = code
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeUploader struct{ folders []string }

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, folder string, kind media.Kind) (string, error) {
	f.folders = append(f.folders, folder)
	return "https://cdn.example.com/" + string(kind) + "/x", nil
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	sender *capturingSender
	pub    *recordingPublisher
}

func newEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	gdb := dbtest.Open(t)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Config{
		JWTSecret:               testSecret,
		JWTTTL:                  time.Hour,
		DefaultCoverageRadiusKm: 10,
		AdminUsername:           "admin",
		AdminPasswordHash:       string(hash),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	env := &testEnv{
		db:     gdb,
		sender: &capturingSender{codes: map[string]string{}},
		pub:    &recordingPublisher{},
	}
	env.app = NewApp(Deps{
		DB:         gdb,
		Config:     cfg,
		Challenges: redis.NewChallengeStore(rdb, 10*time.Minute, 5, 0),
		OTPSender:  env.sender,
		Uploader:   &fakeUploader{},
		Publisher:  env.pub,
		Quiet:      true,
	})
	return env
}

// do sends a JSON request and decodes the JSON response into a map.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

// seed creates a located worker with one service and a customer.
func (e *testEnv) seed(t *testing.T) (worker, customer *models.User, service *models.Service) {
	t.Helper()
	lat, lng := 28.61, 77.20
	w, _, err := models.FindOrCreateUserByPhone(e.db, "+915000000001")
	require.NoError(t, err)
	_, err = models.SetUserRole(e.db, w.ID, models.RoleWorker)
	require.NoError(t, err)
	w, err = models.SetUserLocation(e.db, w.ID, models.UserLocation{Latitude: &lat, Longitude: &lng, HouseNo: "1", Apartment: "A"})
	require.NoError(t, err)

	c, _, err := models.FindOrCreateUserByPhone(e.db, "+915000000002")
	require.NoError(t, err)

	s, err := models.CreateService(e.db, models.ServiceInput{Name: "AC Repair", CoverageRadius: 5}, w.ID, 10)
	require.NoError(t, err)
	return w, c, s
}

func id(v interface{}) uint {
	return uint(v.(float64))
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	env := newEnv(t, nil)
	worker, customer, service := env.seed(t)

	status, body := env.do(t, "POST", "/bookings", fiber.Map{
		"serviceId":  service.ID,
		"customerId": customer.ID,
		"workerId":   worker.ID,
	}, "")
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, true, body["success"])
	booking := body["booking"].(map[string]interface{})
	assert.Equal(t, "pending", booking["status"])
	bookingID := id(booking["id"])

	path := "/bookings/" + itoa(bookingID)

	status, body = env.do(t, "PATCH", "/bookings/status/"+itoa(bookingID), fiber.Map{"status": "accepted"}, "")
	require.Equal(t, http.StatusOK, status, body)

	status, body = env.do(t, "GET", path, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "accepted", body["booking"].(map[string]interface{})["status"])

	for _, text := range []string{"hi", "hello"} {
		status, body = env.do(t, "POST", "/bookings/message/"+itoa(bookingID), fiber.Map{"senderId": customer.ID, "text": text}, "")
		require.Equal(t, http.StatusOK, status, body)
	}

	status, body = env.do(t, "GET", path, nil, "")
	require.Equal(t, http.StatusOK, status)
	messages := body["booking"].(map[string]interface{})["chatMessages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[0].(map[string]interface{})["text"])
	assert.Equal(t, "hello", messages[1].(map[string]interface{})["text"])

	status, body = env.do(t, "GET", path+"/messages?after="+itoa(id(messages[0].(map[string]interface{})["id"])), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["messages"], 1)

	// Illegal transition is a client error.
	status, body = env.do(t, "PATCH", "/bookings/status/"+itoa(bookingID), fiber.Map{"status": "pending"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])

	status, _ = env.do(t, "PATCH", "/bookings/status/"+itoa(bookingID), fiber.Map{"status": "done"}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, "GET", "/bookings/user/"+itoa(worker.ID)+"/worker", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["bookings"], 1)

	assert.Equal(t, []events.Type{
		events.BookingCreated,
		events.BookingStatusChanged,
		events.BookingMessage,
		events.BookingMessage,
	}, env.pub.types())
}

func TestBookingNotFound(t *testing.T) {
	env := newEnv(t, nil)

	status, body := env.do(t, "GET", "/bookings/999", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])

	status, _ = env.do(t, "GET", "/bookings/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, "POST", "/bookings", fiber.Map{"customerId": 1}, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBookingPartiesEnforced(t *testing.T) {
	env := newEnv(t, func(c *config.Config) { c.EnforceBookingParties = true })
	worker, customer, service := env.seed(t)

	customerToken, err := utils.GenerateToken(testSecret, customer.ID, "customer", time.Hour)
	require.NoError(t, err)
	workerToken, err := utils.GenerateToken(testSecret, worker.ID, "worker", time.Hour)
	require.NoError(t, err)

	status, body := env.do(t, "POST", "/bookings", fiber.Map{"serviceId": service.ID}, customerToken)
	require.Equal(t, http.StatusCreated, status, body)
	bookingID := itoa(id(body["booking"].(map[string]interface{})["id"]))

	status, _ = env.do(t, "PATCH", "/bookings/status/"+bookingID, fiber.Map{"status": "accepted"}, customerToken)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(t, "PATCH", "/bookings/status/"+bookingID, fiber.Map{"status": "accepted"}, "")
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(t, "PATCH", "/bookings/status/"+bookingID, fiber.Map{"status": "accepted"}, workerToken)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, "POST", "/bookings/message/"+bookingID, fiber.Map{"senderId": 999, "text": "spam"}, "")
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(t, "POST", "/bookings/message/"+bookingID, fiber.Map{"senderId": worker.ID, "text": "hi"}, customerToken)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(t, "POST", "/bookings/message/"+bookingID, fiber.Map{"text": "hi"}, customerToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestServiceSearchOverHTTP(t *testing.T) {
	env := newEnv(t, nil)
	worker, _, _ := env.seed(t)

	status, body := env.do(t, "GET", "/services?lat=28.65&lng=77.25", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["services"], 0)

	status, body = env.do(t, "GET", "/services?lat=28.615&lng=77.205", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["services"], 1)

	status, body = env.do(t, "GET", "/services", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["services"], 1)

	status, _ = env.do(t, "GET", "/services?lat=abc&lng=77", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, "GET", "/services?lat=120&lng=77", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, "POST", "/services", fiber.Map{"workerId": worker.ID, "name": "Fan Repair", "price": 199.5}, "")
	require.Equal(t, http.StatusCreated, status, body)
	svc := body["service"].(map[string]interface{})
	assert.Equal(t, 10.0, svc["coverageRadius"])
	assert.Equal(t, 199.5, svc["price"])
	assert.Equal(t, "1, A", svc["location"].(map[string]interface{})["address"])

	status, body = env.do(t, "GET", "/services/worker/"+itoa(worker.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["services"], 2)

	status, _ = env.do(t, "POST", "/services", fiber.Map{"name": "No worker"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCategoriesOverHTTP(t *testing.T) {
	env := newEnv(t, nil)

	status, body := env.do(t, "POST", "/categories", fiber.Map{"name": "Plumbing", "subCategories": []string{"Taps"}}, "")
	require.Equal(t, http.StatusCreated, status, body)
	catID := itoa(id(body["category"].(map[string]interface{})["id"]))

	status, body = env.do(t, "POST", "/categories", fiber.Map{"name": "plumbing"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, body = env.do(t, "PUT", "/categories/"+catID+"/subcategories", fiber.Map{"subCategories": []string{"Pipes", " "}}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"Pipes"}, body["category"].(map[string]interface{})["subCategories"])

	status, _ = env.do(t, "PUT", "/categories/"+catID, fiber.Map{"isActive": false}, "")
	require.Equal(t, http.StatusOK, status)
	status, body = env.do(t, "GET", "/categories", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["categories"], 0)

	status, _ = env.do(t, "DELETE", "/categories/"+catID, nil, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, "GET", "/categories/"+catID, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOTPLoginOverHTTP(t *testing.T) {
	env := newEnv(t, nil)
	phone := "+916000000001"

	status, body := env.do(t, "POST", "/auth/otp/request", fiber.Map{"phone": phone}, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["isNewUser"])
	code := env.sender.codes[phone]
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	status, _ = env.do(t, "POST", "/auth/otp/verify", fiber.Map{"phone": phone, "otp": wrong}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, "POST", "/auth/otp/verify", fiber.Map{"phone": phone, "otp": code}, "")
	require.Equal(t, http.StatusOK, status, body)
	token := body["token"].(string)
	require.NotEmpty(t, token)

	// Codes are single use.
	status, _ = env.do(t, "POST", "/auth/otp/verify", fiber.Map{"phone": phone, "otp": code}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, "GET", "/auth/me", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, phone, body["user"].(map[string]interface{})["phone"])

	status, _ = env.do(t, "GET", "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserRoutes(t *testing.T) {
	env := newEnv(t, nil)
	u, _, err := models.FindOrCreateUserByPhone(env.db, "+917000000001")
	require.NoError(t, err)
	path := "/users/" + itoa(u.ID)

	status, body := env.do(t, "PUT", path+"/location", fiber.Map{"latitude": 12.9, "longitude": 77.6, "houseNo": "7", "label": "Home"}, "")
	require.Equal(t, http.StatusOK, status, body)
	loc := body["user"].(map[string]interface{})["location"].(map[string]interface{})
	assert.Equal(t, "7", loc["houseNo"])
	assert.Equal(t, "", loc["apartment"])

	status, _ = env.do(t, "PUT", path+"/location", fiber.Map{"label": "Beach"}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, "PUT", path+"/role", fiber.Map{"role": "worker"}, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, "PUT", path+"/role", fiber.Map{"role": "boss"}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, "PUT", path+"/profile", fiber.Map{"name": "Meera"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Meera", body["user"].(map[string]interface{})["name"])

	status, _ = env.do(t, "GET", "/users/424242", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdminRoutes(t *testing.T) {
	env := newEnv(t, nil)
	worker, customer, service := env.seed(t)
	_, err := models.CreateBooking(env.db, models.BookingInput{ServiceID: service.ID, CustomerID: customer.ID})
	require.NoError(t, err)

	status, _ := env.do(t, "GET", "/admin/bookings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	userToken, err := utils.GenerateToken(testSecret, customer.ID, "customer", time.Hour)
	require.NoError(t, err)
	status, _ = env.do(t, "GET", "/admin/bookings", nil, userToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, "POST", "/admin/login", fiber.Map{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, body := env.do(t, "POST", "/admin/login", fiber.Map{"username": "admin", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, status, body)
	token := body["token"].(string)

	status, body = env.do(t, "GET", "/admin/bookings", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["bookings"], 1)
	assert.Equal(t, 1.0, body["total"])

	status, _ = env.do(t, "GET", "/admin/bookings?status=bogus", nil, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, "GET", "/admin/users", nil, token)
	require.Equal(t, http.StatusOK, status)
	users := body["users"].([]interface{})
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Equal(t, 1.0, u.(map[string]interface{})["bookingCount"])
	}

	status, body = env.do(t, "PATCH", "/admin/users/"+itoa(worker.ID)+"/toggle", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["user"].(map[string]interface{})["isActive"])

	status, body = env.do(t, "GET", "/admin/stats", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["stats"].(map[string]interface{})["bookings"])

	status, body = env.do(t, "PUT", "/admin/settings", fiber.Map{"settings": fiber.Map{"supportPhone": "100"}}, token)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "100", body["settings"].(map[string]interface{})["supportPhone"])

	req := httptest.NewRequest("GET", "/admin/bookings/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))

	status, _ = env.do(t, "DELETE", "/admin/users/"+itoa(worker.ID), nil, token)
	assert.Equal(t, http.StatusOK, status)
}

func TestUploadRoutes(t *testing.T) {
	env := newEnv(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload/image", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "https://cdn.example.com/image/x", out["url"])

	status, body := env.do(t, "POST", "/upload/image", fiber.Map{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
}

func TestHealthAndUnknownRoute(t *testing.T) {
	env := newEnv(t, nil)

	status, body := env.do(t, "GET", "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = env.do(t, "GET", "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

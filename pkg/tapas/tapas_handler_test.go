package tapas

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/tapas-app/tapas-backend/pkg/auth"
	"github.com/tapas-app/tapas-backend/pkg/communication"
	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/users"
)

type viewResponse struct {
	ID                 string      `json:"id"`
	Status             Status      `json:"status"`
	CheckedDays        []time.Time `json:"checkedDays"`
	DisplayDescription string      `json:"displayDescription"`
	IsTodaySatisfied   bool        `json:"isTodaySatisfied"`
	TotalUnits         int         `json:"totalUnits"`
}

func newTestHandler(seeded ...*Tapas) (*Handler, *MockTapasRepository) {
	service, repository, _ := newTestService(seeded...)

	userRepository := &users.MockUserRepository{Users: []*users.User{
		{
			ID:          primaryUserID,
			FirebaseUID: "firebase-1",
			Name:        "Ada",
			Settings:    users.Settings{Language: "de", DayTime: "04:00", TimeZone: "Europe/Berlin"},
		},
	}}

	return &Handler{
		Service:         service,
		UserRepository:  userRepository,
		Logger:          log,
		ResponseManager: &communication.ResponseManager{Logger: log},
	}, repository
}

func newRequest(method string, target string, body interface{}, vars map[string]string) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, target, reader)
	request = request.WithContext(auth.WithUserID(request.Context(), primaryUserID.Hex()))

	if vars != nil {
		request = mux.SetURLVars(request, vars)
	}

	return request
}

func TestHandler_TapasAddAndCheck(t *testing.T) {
	now = func() time.Time { return time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC) }
	handler, _ := newTestHandler()

	recorder := httptest.NewRecorder()
	handler.TapasAdd(recorder, newRequest(http.MethodPost, "/v1/tapas", map[string]interface{}{
		"name":         "Read",
		"description":  map[string]string{"en": "Read a chapter", "de": "Ein Kapitel lesen"},
		"scheduleType": "daily",
		"duration":     5,
		"startDate":    "2024-01-01T00:00:00Z",
	}, nil))

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	created := viewResponse{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	if created.DisplayDescription != "Ein Kapitel lesen" || created.TotalUnits != 5 {
		t.Errorf("unexpected view %+v", created)
	}

	recorder = httptest.NewRecorder()
	handler.CheckToday(recorder, newRequest(http.MethodPost, "/v1/tapas/"+created.ID+"/checkins/today", nil,
		map[string]string{"tapasID": created.ID}))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	checked := viewResponse{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &checked); err != nil {
		t.Fatal(err)
	}

	// 03:00 in Berlin is still the first of January with a 04:00 rollover
	want := []time.Time{date.NewDay(2024, 1, 1)}
	if !reflect.DeepEqual(checked.CheckedDays, want) || !checked.IsTodaySatisfied {
		t.Errorf("got check-ins %v, want %v", checked.CheckedDays, want)
	}
}

func TestHandler_ErrorStatus(t *testing.T) {
	now = func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }
	future := daily(date.NewDay(2024, 2, 1), 5)
	failed := daily(date.NewDay(2024, 1, 1), 5)
	failed.Status = StatusFailed
	handler, _ := newTestHandler(future, failed)

	tests := []struct {
		name    string
		handle  http.HandlerFunc
		request *http.Request
		want    int
	}{
		{"unknown tapas", handler.CheckToday,
			newRequest(http.MethodPost, "/", nil, map[string]string{"tapasID": "61d5a4f1e4b0c2a1b2c3d4e5"}), http.StatusNotFound},
		{"before start", handler.CheckToday,
			newRequest(http.MethodPost, "/", nil, map[string]string{"tapasID": future.ID.Hex()}), http.StatusBadRequest},
		{"failed tapas", handler.CheckToday,
			newRequest(http.MethodPost, "/", nil, map[string]string{"tapasID": failed.ID.Hex()}), http.StatusConflict},
		{"finish scheduled", handler.TapasFinish,
			newRequest(http.MethodPost, "/", nil, map[string]string{"tapasID": future.ID.Hex()}), http.StatusConflict},
		{"bad result day", handler.ResultPut,
			newRequest(http.MethodPut, "/", map[string]string{"content": "x"}, map[string]string{"tapasID": future.ID.Hex(), "day": "yesterday"}), http.StatusBadRequest},
		{"invalid create", handler.TapasAdd,
			newRequest(http.MethodPost, "/", map[string]interface{}{"name": "x", "scheduleType": "everyNthDays"}, nil), http.StatusBadRequest},
		{"unshared", handler.SharedGet,
			newRequest(http.MethodGet, "/", nil, map[string]string{"tapasID": future.ID.Hex()}), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			tt.handle(recorder, tt.request)

			if recorder.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestHandler_GetAllTapas(t *testing.T) {
	now = func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }
	open := daily(date.NewDay(2024, 1, 1), 5)
	failed := daily(date.NewDay(2024, 1, 1), 5)
	failed.Status = StatusFailed
	handler, _ := newTestHandler(open, failed)

	recorder := httptest.NewRecorder()
	handler.GetAllTapas(recorder, newRequest(http.MethodGet, "/v1/tapas?pageSize=30", nil, nil))
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for a large page, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	handler.GetAllTapas(recorder, newRequest(http.MethodGet, "/v1/tapas?status=failed&pageSize=5", nil, nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	response := struct {
		Results    []viewResponse           `json:"results"`
		Pagination communication.Pagination `json:"pagination"`
	}{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}

	if len(response.Results) != 1 || response.Results[0].ID != failed.ID.Hex() {
		t.Errorf("unexpected results %+v", response.Results)
	}

	want := communication.Pagination{ResultCount: 1, PageSize: 5, PageIndex: 0, Pages: 1}
	if response.Pagination != want {
		t.Errorf("got pagination %+v, want %+v", response.Pagination, want)
	}
}

func TestHandler_ShareAndStatistics(t *testing.T) {
	now = func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }
	seeded := daily(date.NewDay(2024, 1, 1), 5)
	seeded.CheckedDays = days(4, 5)
	seeded.Results = []Result{{Date: date.NewDay(2024, 1, 4), Content: "private"}}
	handler, _ := newTestHandler(seeded)

	recorder := httptest.NewRecorder()
	handler.TapasShare(recorder, newRequest(http.MethodPost, "/", map[string]interface{}{"shared": true},
		map[string]string{"tapasID": seeded.ID.Hex()}))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	handler.SharedGet(recorder, mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil),
		map[string]string{"tapasID": seeded.ID.Hex()}))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	if bytes.Contains(recorder.Body.Bytes(), []byte("private")) {
		t.Errorf("shared view exposes results: %s", recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	handler.GetStatistics(recorder, newRequest(http.MethodGet, "/v1/statistics", nil, nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	statistics := Statistics{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &statistics); err != nil {
		t.Fatal(err)
	}

	if statistics.TapasCount != 1 || statistics.Checkins.Last7Days != 2 || statistics.CurrentUnitsCompleted != 1 {
		t.Errorf("unexpected statistics %+v", statistics)
	}
}

func TestUILocale(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"de-DE,de;q=0.9,en;q=0.8", "de"},
		{"fr;q=0.7", "fr"},
		{"EN-us", "en"},
	}

	for _, tt := range tests {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Accept-Language", tt.header)

		if got := uiLocale(request); got != tt.want {
			t.Errorf("uiLocale(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

package tapas

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tapas-app/tapas-backend/pkg/auth"
	"github.com/tapas-app/tapas-backend/pkg/communication"
	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"github.com/tapas-app/tapas-backend/pkg/users"
)

// Handler is the handler for tapas API calls
type Handler struct {
	Service         *Service
	UserRepository  users.UserRepositoryInterface
	Logger          logger.Interface
	ResponseManager *communication.ResponseManager
	DefaultDayTime  date.DayTime
}

type dayBody struct {
	Date string `json:"date"`
}

type locale struct {
	user     *users.User
	today    time.Time
	uiLocale string
}

// parseDay accepts a calendar date or a full RFC 3339 timestamp
func parseDay(value string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", value)
	if err == nil {
		return day, nil
	}

	day, err = time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}

	return date.StartOfDayUTC(day), nil
}

// uiLocale returns the primary language subtag of the first Accept-Language entry
func uiLocale(request *http.Request) string {
	header := request.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}

	first := strings.Split(header, ",")[0]
	first = strings.TrimSpace(strings.Split(first, ";")[0])

	return strings.ToLower(strings.Split(first, "-")[0])
}

func (handler *Handler) locale(writer http.ResponseWriter, request *http.Request) (*locale, bool) {
	userID := request.Context().Value(auth.KeyUserID).(string)

	user, err := handler.UserRepository.FindByID(request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			handler.ResponseManager.RespondWithError(writer, http.StatusUnauthorized, "User not found", err)
			return nil, false
		}

		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Problem finding user", err)
		return nil, false
	}

	return &locale{
		user:     user,
		today:    user.Today(now(), handler.DefaultDayTime),
		uiLocale: uiLocale(request),
	}, true
}

func (handler *Handler) respondWithView(writer http.ResponseWriter, t *Tapas, l *locale, status int) {
	view := NewView(t, l.today, l.user.Settings.Language, l.uiLocale)
	handler.ResponseManager.RespondWithStatus(writer, view, status)
}

func (handler *Handler) respondWithServiceError(writer http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.Is(err, ErrNotFound):
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, "Tapas not found", err)
	case errors.Is(err, ErrOutOfRange):
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Day is out of range", err)
	case errors.Is(err, ErrInvalidCheckin):
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Invalid check-in", err)
	case errors.Is(err, ErrInvalidResult):
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Invalid result", err)
	case errors.Is(err, ErrInvalidShare):
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Invalid share", err)
	case errors.Is(err, ErrNotActive):
		handler.ResponseManager.RespondWithError(writer, http.StatusConflict, "Tapas is not active", err)
	case errors.Is(err, ErrNotFinishable):
		handler.ResponseManager.RespondWithError(writer, http.StatusConflict, "Tapas can't be finished", err)
	case errors.As(err, &validationErrors):
		for _, e := range validationErrors {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	default:
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Problem processing tapas", err)
	}
}

// TapasAdd creates a tapas
func (handler *Handler) TapasAdd(writer http.ResponseWriter, request *http.Request) {
	l, ok := handler.locale(writer, request)
	if !ok {
		return
	}

	t := Tapas{}
	err := json.NewDecoder(request.Body).Decode(&t)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	created, err := handler.Service.Create(request.Context(), l.user.ID.Hex(), &t, l.today)
	if err != nil {
		handler.respondWithServiceError(writer, err)
		return
	}

	handler.respondWithView(writer, created, l, http.StatusCreated)
}

// TapasReplace replaces the definition of a tapas
func (handler *Handler) TapasReplace(writer http.ResponseWriter, request *http.Request) {
	l, ok := handler.locale(writer, request)
	if !ok {
		return
	}

	t := Tapas{}
	err := json.NewDecoder(request.Body).Decode(&t)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	replaced, err := handler.Service.Replace(request.Context(), mux.Vars(request)["tapasID"], l.user.ID.Hex(), &t, l.today)
	if err != nil {
		handler.respondWithServiceError(writer, err)
		return
	}

	handler.respondWithView(writer, replaced, l, http.StatusOK)
}

// TapasGet finds a single tapas
func (handler *Handler) TapasGet(writer http.ResponseWriter, request *http.Request) {
	l, ok := handler.locale(writer, request)
	if !ok {
		return
	}

	t, err := handler.Service.Get(request.Context(), mux.Vars(request)["tapasID"], l.user.ID.Hex(), l.today)
	if err != nil {
		handler.respondWithServiceError(writer, err)
		return
	}

	handler.respondWithView(writer, t, l, http.StatusOK)
}

// TapasDelete deletes a tapas
func (handler *Handler) TapasDelete(writer http.ResponseWriter, request *http.Request) {
	userID := request.Context().Value(auth.KeyUserID).(string)

	err := handler.Service.Delete(request.Context(), mux.Vars(request)["tapasID"], userID)
	if err != nil {
		handler.respondWithServiceError(writer, err)
		return
	}

	handler.ResponseManager.RespondWithNoContent(writer)
}

// GetAllTapas lists the tapas of a user paginated
func (handler *Handler) GetAllTapas(writer http.ResponseWriter, request *http.Request) {
	l, ok := handler.locale(writer, request)
	if !ok {
		return
	}

	var page = 0
	var pageSize = 10
	var err error

	queryPage := request.URL.Query().Get("page")
	queryPageSize := request.URL.Query().Get("pageSize")

	if queryPage != "" {
		page, err = strconv.Atoi(queryPage)
		if err != nil || page < 0 {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
				"Bad query parameter page", err)
			return
		}
	}

	if queryPageSize != "" {
		pageSize, err = strconv.Atoi(queryPageSize)
		if err != nil || pageSize < 1 {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
				"Bad query parameter pageSize", err)
			return
		}

		if pageSize > 25 {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
				"Page size can't be more than 25", nil)
			return
		}
	}

	var filters []Filter
	for parameter, field := range FilterableFields {
		value := request.URL.Query().Get(parameter)
		if value == "" {
			continue
		}

		if field == "shared" {
			shared, err := strconv.ParseBool(value)
			if err != nil {
				handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
					"Bad value for shared", err)
				return
			}
			filters = append(filters, Filter{Field: field, Value: shared})
			continue
		}

		filters = append(filters, Filter{Field: field, Value: value})
	}

	list, count, err := handler.Service.List(request.Context(), l.user.ID.Hex(), page, pageSize, filters, l.today)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Problem in query", err)
		return
	}

	views := make([]View, 0, len(list))
	for index := range list {
		views = append(views, NewView(&list[index], l.today, l.user.Settings.Language, l.uiLocale))
	}

	handler.ResponseManager.RespondWithPage(writer, views, count, page, pageSize)
}

func (handler *Handler) checkin(writer http.ResponseWriter, request *http.Request,
	fn func(l *locale, tapasID string) (*Tapas, error)) {
	l, ok := handler.locale(writer, request)
	if !ok {
		return
	}

	t, err := fn(l, mux.Vars(request)["tapasID"])
	if err != nil {
		handler.respondWithServiceError(writer, err)
		return
	}

	handler.respondWithView(writer, t, l, http.StatusOK)
}

func (handler *Handler) decodeDay(writer http.ResponseWriter, request *http.Request) (time.Time, bool) {
	body := dayBody{}
	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return time.Time{}, false
	}

	day, err := parseDay(body.Date)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong date format", err)
		return time.Time{}, false
	}

	return day, true
}

// CheckToday checks the current unit
func (handler *Handler) CheckToday(writer http.ResponseWriter, request *http.Request) {
	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.CheckToday(request.Context(), tapasID, l.user.ID.Hex(), l.today)
	})
}

// CheckYesterday checks the unit of yesterday
func (handler *Handler) CheckYesterday(writer http.ResponseWriter, request *http.Request) {
	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.CheckYesterday(request.Context(), tapasID, l.user.ID.Hex(), l.today)
	})
}

// Acknowledge checks all units of a date range
func (handler *Handler) Acknowledge(writer http.ResponseWriter, request *http.Request) {
	body := struct {
		From string `json:"from"`
		To   string `json:"to"`
	}{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	from, err := parseDay(body.From)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong date format for from", err)
		return
	}

	to, err := parseDay(body.To)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong date format for to", err)
		return
	}

	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.Acknowledge(request.Context(), tapasID, l.user.ID.Hex(), from, to, l.today)
	})
}

// Recuperate makes up a missed unit
func (handler *Handler) Recuperate(writer http.ResponseWriter, request *http.Request) {
	day, ok := handler.decodeDay(writer, request)
	if !ok {
		return
	}

	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.Recuperate(request.Context(), tapasID, l.user.ID.Hex(), day, l.today)
	})
}

// Advance completes a future unit
func (handler *Handler) Advance(writer http.ResponseWriter, request *http.Request) {
	day, ok := handler.decodeDay(writer, request)
	if !ok {
		return
	}

	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.Advance(request.Context(), tapasID, l.user.ID.Hex(), day, l.today)
	})
}

// ClearLast removes the latest check-in
func (handler *Handler) ClearLast(writer http.ResponseWriter, request *http.Request) {
	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.ClearLast(request.Context(), tapasID, l.user.ID.Hex(), l.today)
	})
}

// ResultPut stores the diary entry of a day
func (handler *Handler) ResultPut(writer http.ResponseWriter, request *http.Request) {
	day, err := parseDay(mux.Vars(request)["day"])
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong date format", err)
		return
	}

	body := struct {
		Content string `json:"content"`
	}{}

	err = json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.AddResult(request.Context(), tapasID, l.user.ID.Hex(), day, body.Content, l.today)
	})
}

// ResultDelete removes the diary entry of a day
func (handler *Handler) ResultDelete(writer http.ResponseWriter, request *http.Request) {
	day, err := parseDay(mux.Vars(request)["day"])
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong date format", err)
		return
	}

	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.RemoveResult(request.Context(), tapasID, l.user.ID.Hex(), day, l.today)
	})
}

// TapasFail gives up a tapas and optionally repeats it
func (handler *Handler) TapasFail(writer http.ResponseWriter, request *http.Request) {
	l, ok := handler.locale(writer, request)
	if !ok {
		return
	}

	body := struct {
		Cause  string `json:"cause" validate:"max=1000"`
		Repeat bool   `json:"repeat"`
	}{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	err = validator.New().Struct(body)
	if err != nil {
		handler.respondWithServiceError(writer, err)
		return
	}

	failed, repeated, err := handler.Service.Fail(request.Context(), mux.Vars(request)["tapasID"], l.user.ID.Hex(),
		body.Cause, body.Repeat, l.today)
	if err != nil {
		handler.respondWithServiceError(writer, err)
		return
	}

	response := map[string]interface{}{
		"result": NewView(failed, l.today, l.user.Settings.Language, l.uiLocale),
	}

	if repeated != nil {
		response["repeated"] = NewView(repeated, l.today, l.user.Settings.Language, l.uiLocale)
	}

	handler.ResponseManager.Respond(writer, response)
}

// TapasFinish ends a tapas without schedule
func (handler *Handler) TapasFinish(writer http.ResponseWriter, request *http.Request) {
	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		return handler.Service.Finish(request.Context(), tapasID, l.user.ID.Hex(), l.today)
	})
}

// TapasShare publishes a tapas and sends invitations
func (handler *Handler) TapasShare(writer http.ResponseWriter, request *http.Request) {
	body := struct {
		Shared bool     `json:"shared"`
		Emails []string `json:"emails"`
	}{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	handler.checkin(writer, request, func(l *locale, tapasID string) (*Tapas, error) {
		sharer := l.user.Name
		if sharer == "" {
			sharer = l.user.Email
		}

		return handler.Service.Share(request.Context(), tapasID, l.user.ID.Hex(), body.Shared,
			Invitation{SharerName: sharer, Addresses: body.Emails}, l.today)
	})
}

// SharedGet returns the public view of a shared tapas
func (handler *Handler) SharedGet(writer http.ResponseWriter, request *http.Request) {
	today := date.Today(now(), time.UTC, handler.DefaultDayTime)

	t, err := handler.Service.GetShared(request.Context(), mux.Vars(request)["tapasID"], today)
	if err != nil {
		handler.respondWithServiceError(writer, err)
		return
	}

	language := uiLocale(request)
	handler.ResponseManager.Respond(writer, NewPublicView(NewView(t, today, language, language)))
}

// GetStatistics aggregates all tapas of the user
func (handler *Handler) GetStatistics(writer http.ResponseWriter, request *http.Request) {
	userID := request.Context().Value(auth.KeyUserID).(string)

	l, ok := handler.locale(writer, request)
	if !ok {
		return
	}

	statistics, err := handler.Service.Statistics(request.Context(), userID, l.today)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, "Problem in query", err)
		return
	}

	handler.ResponseManager.Respond(writer, statistics)
}

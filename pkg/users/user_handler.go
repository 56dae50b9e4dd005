package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tapas-app/tapas-backend/pkg/auth"
	"github.com/tapas-app/tapas-backend/pkg/auth/jwt"
	"github.com/tapas-app/tapas-backend/pkg/communication"
	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/email"
	"github.com/tapas-app/tapas-backend/pkg/logger"
)

// Issuer is the issuer of all session tokens
const Issuer = "tapas"

// AccessTokenTTL is how long an access token is valid
const AccessTokenTTL = 24 * time.Hour

// Handler is the handler for user API calls
type Handler struct {
	UserRepository  UserRepositoryInterface
	Logger          logger.Interface
	ResponseManager *communication.ResponseManager
	Secret          string
	EmailService    email.Mailer
	Verifier        auth.IDTokenVerifier
}

// UserFirebaseLogin exchanges a verified identity provider ID token for session tokens.
// Unknown identities are registered on the fly.
func (handler *Handler) UserFirebaseLogin(writer http.ResponseWriter, request *http.Request) {
	body := struct {
		IDToken  string `json:"idToken"`
		Language string `json:"language"`
		TimeZone string `json:"timeZone"`
	}{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	identity, err := handler.Verifier.VerifyIDToken(request.Context(), body.IDToken)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusUnauthorized, "ID token invalid", err)
		return
	}

	user, err := handler.UserRepository.FindByFirebaseUID(request.Context(), identity.UID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem finding user", err)
		return
	}

	if user == nil {
		user = &User{
			FirebaseUID: identity.UID,
			Email:       identity.Email,
			Name:        identity.Name,
			Settings:    Settings{Language: body.Language, Theme: "system"},
		}

		if _, err := time.LoadLocation(body.TimeZone); body.TimeZone != "" && err == nil {
			user.Settings.TimeZone = body.TimeZone
		}

		err = validator.New().Struct(user)
		if err != nil {
			for _, e := range err.(validator.ValidationErrors) {
				handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
				return
			}
		}

		err = handler.UserRepository.Add(request.Context(), user)
		if err != nil {
			handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
				"User couldn't be persisted in the database", err)
			return
		}

		if user.Email != "" && handler.EmailService != nil {
			err = handler.EmailService.AddToList(request.Context(), user.Email, email.AppUsersListID)
			if err != nil {
				handler.Logger.Warning(fmt.Sprintf("Could not add user %s to mailing list", user.ID.Hex()), err)
			}
		}
	}

	if user.IsDeactivated {
		handler.ResponseManager.RespondWithError(writer, http.StatusForbidden, "User is deactivated", nil)
		return
	}

	handler.generateAndRespondWithTokens(user, writer)
}

func (handler *Handler) generateAndRespondWithTokens(user *User, writer http.ResponseWriter) {
	accessToken, err := jwt.Issue(user.ID.Hex(), Issuer, jwt.TokenTypeAccess, AccessTokenTTL, handler.Secret)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem signing access token", err)
		return
	}

	refreshToken, err := jwt.Issue(user.ID.Hex(), Issuer, jwt.TokenTypeRefresh, 0, handler.Secret)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem signing refresh token", err)
		return
	}

	var response = map[string]interface{}{
		"result":       user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	}

	handler.ResponseManager.Respond(writer, response)
}

// UserRefresh refreshes a users access token with a new one by providing a refresh token
func (handler *Handler) UserRefresh(writer http.ResponseWriter, request *http.Request) {
	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"Wrong format", err)
		return
	}

	if body.RefreshToken == "" {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"No refresh token specified", nil)
		return
	}

	refreshToken, err := jwt.Verify(body.RefreshToken, jwt.TokenTypeRefresh, handler.Secret, jwt.AlgHS256, jwt.Claims{})
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusUnauthorized, "Token invalid", err)
		return
	}

	u, err := handler.UserRepository.FindByID(request.Context(), refreshToken.Payload.Subject)
	if err != nil || u.IsDeactivated {
		handler.ResponseManager.RespondWithError(writer, http.StatusUnauthorized, "User not found", err)
		return
	}

	accessToken, err := jwt.Issue(u.ID.Hex(), Issuer, jwt.TokenTypeAccess, AccessTokenTTL, handler.Secret)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Problem signing access token", err)
		return
	}

	handler.ResponseManager.Respond(writer, map[string]interface{}{
		"accessToken": accessToken,
	})
}

// UserGet retrieves the authenticated user
func (handler *Handler) UserGet(writer http.ResponseWriter, request *http.Request) {
	userID := request.Context().Value(auth.KeyUserID).(string)

	u, err := handler.UserRepository.FindByID(request.Context(), userID)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound,
			"User wasn't found", err)
		return
	}

	handler.ResponseManager.Respond(writer, u)
}

// UserPatch updates the profile of the authenticated user
func (handler *Handler) UserPatch(writer http.ResponseWriter, request *http.Request) {
	userID := request.Context().Value(auth.KeyUserID).(string)

	user, err := handler.UserRepository.FindByID(request.Context(), userID)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound,
			"User wasn't found", err)
		return
	}

	body := struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}{}

	err = json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	if body.Name != nil {
		user.Name = *body.Name
	}

	if body.Email != nil {
		user.Email = *body.Email
	}

	err = validator.New().Struct(user)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	err = handler.UserRepository.Update(request.Context(), user)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not update user", err)
		return
	}

	handler.ResponseManager.Respond(writer, user)
}

// UserSettingsPatch updates specific values of a user
func (handler *Handler) UserSettingsPatch(writer http.ResponseWriter, request *http.Request) {
	userID := request.Context().Value(auth.KeyUserID).(string)

	user, err := handler.UserRepository.FindByID(request.Context(), userID)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, fmt.Sprintf("Could not find user %s", userID), err)
		return
	}

	userSettings := user.Settings
	originalSettings := userSettings

	err = json.NewDecoder(request.Body).Decode(&userSettings)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	if userSettings.TimeZone != originalSettings.TimeZone {
		_, err := time.LoadLocation(userSettings.TimeZone)
		if err != nil {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
				fmt.Sprintf("Timezone %s does not exist", userSettings.TimeZone), err)
			return
		}
	}

	if userSettings.DayTime != originalSettings.DayTime {
		dayTime, err := date.ParseDayTime(userSettings.DayTime)
		if err != nil {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
				fmt.Sprintf("Day time %s is invalid", userSettings.DayTime), err)
			return
		}

		if userSettings.DayTime != "" {
			userSettings.DayTime = dayTime.String()
		}
	}

	err = validator.New().Struct(userSettings)
	if err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, e.Error(), e)
			return
		}
	}

	user.Settings = userSettings
	err = handler.UserRepository.Update(request.Context(), user)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			fmt.Sprintf("Couldn't update user settings for %s", userID), err)
		return
	}

	handler.ResponseManager.Respond(writer, user)
}

// UserAddDevice upserts a DeviceToken
func (handler *Handler) UserAddDevice(writer http.ResponseWriter, request *http.Request) {
	userID := request.Context().Value(auth.KeyUserID).(string)

	body := map[string]string{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"Wrong format", err)
		return
	}

	deviceToken := body["deviceToken"]

	if deviceToken == "" {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"Must provide deviceToken", nil)
		return
	}

	u, err := handler.UserRepository.FindByID(request.Context(), userID)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound,
			"User wasn't found", err)
		return
	}

	found := false
	for i, token := range u.DeviceTokens {
		if token.Token == deviceToken {
			u.DeviceTokens[i].LastRegistered = time.Now()
			found = true
			break
		}
	}

	if !found {
		if len(u.DeviceTokens) >= MaxDeviceTokens {
			handler.ResponseManager.RespondWithError(writer, http.StatusTooManyRequests,
				"Too many registered devices", nil)
			return
		}

		u.DeviceTokens = append(u.DeviceTokens, DeviceToken{Token: deviceToken, LastRegistered: time.Now()})
	}

	err = handler.UserRepository.Update(request.Context(), u)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not update user", err)
		return
	}

	handler.ResponseManager.RespondWithNoContent(writer)
}

// UserRemoveDevice deletes a DeviceToken
func (handler *Handler) UserRemoveDevice(writer http.ResponseWriter, request *http.Request) {
	userID := request.Context().Value(auth.KeyUserID).(string)

	deviceToken := mux.Vars(request)["deviceToken"]

	if deviceToken == "" {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"Must provide deviceToken", nil)
		return
	}

	u, err := handler.UserRepository.FindByID(request.Context(), userID)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound,
			"User wasn't found", err)
		return
	}

	if !u.RemoveDeviceTokens(deviceToken) {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest,
			"device token not registered", nil)
		return
	}

	err = handler.UserRepository.Update(request.Context(), u)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not update user", err)
		return
	}

	handler.ResponseManager.RespondWithNoContent(writer)
}

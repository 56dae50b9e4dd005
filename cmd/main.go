package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/profiler"
	firebase "firebase.google.com/go/v4"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/tapas-app/tapas-backend/pkg/auth"
	"github.com/tapas-app/tapas-backend/pkg/communication"
	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/email"
	"github.com/tapas-app/tapas-backend/pkg/environment"
	"github.com/tapas-app/tapas-backend/pkg/locking"
	"github.com/tapas-app/tapas-backend/pkg/logger"
	"github.com/tapas-app/tapas-backend/pkg/notifications"
	"github.com/tapas-app/tapas-backend/pkg/tapas"
	"github.com/tapas-app/tapas-backend/pkg/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"
)

// ServiceName identifies the backend in logs and profiles
const ServiceName = "tapas-backend"

type observableTapasRepository interface {
	tapas.TapasRepositoryInterface
	tapas.TapasObservable
}

func firebaseOptions(credentials string) []option.ClientOption {
	credentials = strings.TrimSpace(credentials)

	switch {
	case credentials == "":
		return nil
	case strings.HasPrefix(credentials, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credentials))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(credentials)}
	}
}

func main() {
	environment.Initialize()
	env := environment.Global
	ctx := context.Background()

	var logging logger.Interface = logger.Logger{}

	if env.IsProduction() {
		cloudLogger, err := logger.NewGoogleCloudLogger(ctx, env.GCPProjectID, ServiceName)
		if err != nil {
			logging.Fatal(err)
		}
		defer func() {
			if err := cloudLogger.Close(); err != nil {
				logging.Warning("Could not flush logs", err)
			}
		}()
		logging = cloudLogger

		err = profiler.Start(profiler.Config{Service: ServiceName, ProjectID: env.GCPProjectID})
		if err != nil {
			logging.Warning("Could not start profiler", err)
		}
	}

	logging.Info("Server is starting up...")

	defaultDayTime, err := date.ParseDayTime(env.DayTime)
	if err != nil {
		logging.Fatal(err)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: env.GCPProjectID}, firebaseOptions(env.FirebaseCredentials)...)
	if err != nil {
		logging.Fatal(err)
	}

	var userCache users.UserCacheInterface
	var locker locking.LockerInterface

	if env.Redis != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     env.Redis,
			Password: env.RedisPassword,
		})

		err = redisClient.Ping(ctx).Err()
		if err != nil {
			logging.Fatal(err)
		}

		userCache = users.NewUserCacheRedis(redisClient)
		locker = locking.NewLockerRedis(redisClient)
		logging.Info("Redis connected")
	} else {
		memoryCache, err := users.NewUserCacheMemory(1000)
		if err != nil {
			logging.Fatal(err)
		}

		userCache = memoryCache
		locker = locking.NewLockerMemory()
	}

	var userRepository users.UserRepositoryInterface
	var tapasRepository observableTapasRepository

	switch env.Database {
	case environment.DatabaseFirestore:
		var firestoreClient *firestore.Client
		firestoreClient, err = app.Firestore(ctx)
		if err != nil {
			logging.Fatal(err)
		}
		defer firestoreClient.Close()

		userRepository = &users.FirestoreUserRepository{Client: firestoreClient, Cache: userCache, Logger: logging}
		tapasRepository = &tapas.FirestoreTapasRepository{Client: firestoreClient, Logger: logging}
	case environment.DatabaseMongo:
		client, err := mongo.NewClient(options.Client().ApplyURI(env.DatabaseURL))
		if err != nil {
			logging.Fatal(err)
		}

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = client.Connect(connectCtx)
		if err != nil {
			logging.Fatal(err)
		}

		err = client.Ping(connectCtx, nil)
		cancel()
		if err != nil {
			logging.Fatal(err)
		}

		defer func() {
			if err := client.Disconnect(ctx); err != nil {
				logging.Error("Could not disconnect from database", err)
			}
		}()

		db := client.Database(env.DatabaseName)
		userRepository = &users.MongoDBUserRepository{DB: db.Collection("Users"), Cache: userCache, Logger: logging}
		tapasRepository = &tapas.MongoDBTapasRepository{DB: db.Collection("Tapas"), Logger: logging}
	default:
		logging.Fatal(fmt.Errorf("unknown database %q", env.Database))
	}

	logging.Info("Database connected")

	notificationController, err := notifications.NewNotificationController(ctx, app, logging, userRepository)
	if err != nil {
		logging.Warning("Sync notifications are disabled", err)
	} else {
		tapasRepository.Subscribe(notificationController)
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, app)
	if err != nil {
		logging.Fatal(err)
	}

	var mailer email.Mailer
	if env.Sendinblue != "" {
		mailer = email.NewSendInBlueService(env.Sendinblue)
	}

	responseManager := communication.ResponseManager{Logger: logging}
	authMiddleWare := auth.AuthenticationMiddleware{ResponseManager: &responseManager, Secret: env.Secret}

	userHandler := users.Handler{
		UserRepository:  userRepository,
		Logger:          logging,
		ResponseManager: &responseManager,
		Secret:          env.Secret,
		EmailService:    mailer,
		Verifier:        verifier,
	}

	tapasHandler := tapas.Handler{
		Service: &tapas.Service{
			Repository:      tapasRepository,
			Locker:          locker,
			Logger:          logging,
			Mailer:          mailer,
			ShareTemplate:   env.ShareTemplate,
			FrontendBaseURL: env.FrontendBaseURL,
		},
		UserRepository:  userRepository,
		Logger:          logging,
		ResponseManager: &responseManager,
		DefaultDayTime:  defaultDayTime,
	}

	r := mux.NewRouter()

	r.Methods(http.MethodOptions).HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	})

	r.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)

		_, err := fmt.Fprint(writer, "Welcome to the Tapas API! ✔")
		if err != nil {
			logging.Warning("Could not write welcome", err)
		}
	})

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/auth/firebase", userHandler.UserFirebaseLogin).Methods(http.MethodPost)
	v1.HandleFunc("/auth/refresh", userHandler.UserRefresh).Methods(http.MethodPost)
	v1.HandleFunc("/shared/tapas/{tapasID}", tapasHandler.SharedGet).Methods(http.MethodGet)

	authenticated := v1.PathPrefix("").Subrouter()
	authenticated.Use(authMiddleWare.Middleware)

	authenticated.HandleFunc("/user", userHandler.UserGet).Methods(http.MethodGet)
	authenticated.HandleFunc("/user", userHandler.UserPatch).Methods(http.MethodPatch)
	authenticated.HandleFunc("/user/settings", userHandler.UserSettingsPatch).Methods(http.MethodPatch)
	authenticated.HandleFunc("/user/devices", userHandler.UserAddDevice).Methods(http.MethodPost)
	authenticated.HandleFunc("/user/devices/{deviceToken}", userHandler.UserRemoveDevice).Methods(http.MethodDelete)

	authenticated.HandleFunc("/tapas", tapasHandler.GetAllTapas).Methods(http.MethodGet)
	authenticated.HandleFunc("/tapas", tapasHandler.TapasAdd).Methods(http.MethodPost)
	authenticated.HandleFunc("/tapas/{tapasID}", tapasHandler.TapasGet).Methods(http.MethodGet)
	authenticated.HandleFunc("/tapas/{tapasID}", tapasHandler.TapasReplace).Methods(http.MethodPut)
	authenticated.HandleFunc("/tapas/{tapasID}", tapasHandler.TapasDelete).Methods(http.MethodDelete)
	authenticated.HandleFunc("/tapas/{tapasID}/checkins/today", tapasHandler.CheckToday).Methods(http.MethodPost)
	authenticated.HandleFunc("/tapas/{tapasID}/checkins/yesterday", tapasHandler.CheckYesterday).Methods(http.MethodPost)
	authenticated.HandleFunc("/tapas/{tapasID}/checkins/acknowledge", tapasHandler.Acknowledge).Methods(http.MethodPost)
	authenticated.HandleFunc("/tapas/{tapasID}/checkins/recuperate", tapasHandler.Recuperate).Methods(http.MethodPost)
	authenticated.HandleFunc("/tapas/{tapasID}/checkins/advance", tapasHandler.Advance).Methods(http.MethodPost)
	authenticated.HandleFunc("/tapas/{tapasID}/checkins/last", tapasHandler.ClearLast).Methods(http.MethodDelete)
	authenticated.HandleFunc("/tapas/{tapasID}/results/{day}", tapasHandler.ResultPut).Methods(http.MethodPut)
	authenticated.HandleFunc("/tapas/{tapasID}/results/{day}", tapasHandler.ResultDelete).Methods(http.MethodDelete)
	authenticated.HandleFunc("/tapas/{tapasID}/fail", tapasHandler.TapasFail).Methods(http.MethodPost)
	authenticated.HandleFunc("/tapas/{tapasID}/finish", tapasHandler.TapasFinish).Methods(http.MethodPost)
	authenticated.HandleFunc("/tapas/{tapasID}/share", tapasHandler.TapasShare).Methods(http.MethodPost)
	authenticated.HandleFunc("/statistics", tapasHandler.GetStatistics).Methods(http.MethodGet)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", env.Cors)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept-Language")

			w.Header().Add("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	})

	server := &http.Server{
		Addr:         ":" + env.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logging.Info(fmt.Sprintf("Listening on port %s", env.Port))
	logging.Fatal(server.ListenAndServe())
}

package environment

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// Production defines the prod environment
const Production = "prod"

// Staging defines the staging environment
const Staging = "staging"

// Dev defines the dev environment
const Dev = "dev"

// DatabaseMongo selects the MongoDB document store
const DatabaseMongo = "mongo"

// DatabaseFirestore selects the Firestore document store
const DatabaseFirestore = "firestore"

// Environment holds the configuration of the application
type Environment struct {
	Environment         string `mapstructure:"APP_ENV"`
	Cors                string `mapstructure:"CORS"`
	Secret              string `mapstructure:"SECRET"`
	Port                string `mapstructure:"PORT"`
	Database            string `mapstructure:"DATABASE"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	DatabaseName        string `mapstructure:"DATABASE_NAME"`
	Redis               string `mapstructure:"REDIS"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	GCPProjectID        string `mapstructure:"GCP_PROJECT_ID"`
	FirebaseCredentials string `mapstructure:"FIREBASE_CREDENTIALS"`
	Sendinblue          string `mapstructure:"SENDINBLUE"`
	ShareTemplate       string `mapstructure:"SHARE_TEMPLATE"`
	FrontendBaseURL     string `mapstructure:"FRONTEND_BASE_URL"`
	DayTime             string `mapstructure:"DAY_TIME"`
}

// Global is the configuration loaded by Initialize
var Global Environment

// Initialize loads the configuration into Global and panics if that is not possible
func Initialize() {
	env, err := Load(".env")
	if err != nil {
		panic(err)
	}

	Global = env
}

// Load reads the given dotenv file, or the process environment if the file does not exist,
// and applies defaults
func Load(path string) (Environment, error) {
	env := Environment{}

	data, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return env, err
		}

		data = processEnvironment()
	}

	err = mapstructure.Decode(data, &env)
	if err != nil {
		return env, err
	}

	env.applyDefaults()

	return env, nil
}

func processEnvironment() map[string]string {
	data := map[string]string{}
	for _, pair := range os.Environ() {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}

		data[parts[0]] = parts[1]
	}

	return data
}

func (e *Environment) applyDefaults() {
	if e.Environment == "" {
		e.Environment = Dev
	}

	if e.Port == "" {
		e.Port = "80"
	}

	if e.Database == "" {
		e.Database = DatabaseMongo
	}

	if e.DatabaseName == "" {
		e.DatabaseName = "tapas"
	}

	if e.DayTime == "" {
		e.DayTime = "00:00"
	}
}

// IsProduction reports whether the application runs in production
func (e *Environment) IsProduction() bool {
	return e.Environment == Production
}

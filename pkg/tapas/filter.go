package tapas

// Filter is a model for the rest api filter, all filters compare for equality
type Filter struct {
	Field string
	Value interface{}
}

// FilterableFields maps query parameters to document fields
var FilterableFields = map[string]string{
	"status":       "status",
	"scheduleType": "scheduleType",
	"shared":       "shared",
}

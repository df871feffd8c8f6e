package dto

// HealthCheckResponse represents response for health check
type HealthCheckResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	ActiveJobs int    `json:"active_jobs"`
}

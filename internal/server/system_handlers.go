package server

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/insightlab/insight/internal/database"
	"github.com/insightlab/insight/internal/scheduler"
)

// SystemHandlers serves the monitoring endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	commerceDB  *database.DB
	analyticsDB *database.DB
	sched       *scheduler.Scheduler
	startTime   time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, commerceDB, analyticsDB *database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		commerceDB:  commerceDB,
		analyticsDB: analyticsDB,
		sched:       sched,
		startTime:   time.Now(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	databases := map[string]string{
		"commerce":  "ok",
		"analytics": "ok",
	}
	if err := h.commerceDB.HealthCheck(r.Context()); err != nil {
		databases["commerce"] = err.Error()
	}
	if err := h.analyticsDB.HealthCheck(r.Context()); err != nil {
		databases["analytics"] = err.Error()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
		"databases":      databases,
	})
}

// HandleJobsStatus handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	var jobs []scheduler.JobStatus
	if h.sched != nil {
		jobs = h.sched.Jobs()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": jobs,
	})
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	for _, db := range []*database.DB{h.commerceDB, h.analyticsDB} {
		entry := map[string]interface{}{
			"path": db.Path(),
		}
		if info, err := os.Stat(db.Path()); err == nil {
			entry["size_bytes"] = info.Size()
		}
		if err := db.QuickCheck(r.Context()); err != nil {
			entry["integrity"] = err.Error()
		} else {
			entry["integrity"] = "ok"
		}
		stats[db.Name()] = entry
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sampling interval to keep the status endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

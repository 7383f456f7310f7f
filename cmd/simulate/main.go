package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meditrack/clinic-ops/internal/db"
)

// simulate drives concurrent slot queries and bookings against a running
// api-server to exercise the booking lock: overlapping requests for the same
// opening must produce exactly one created appointment and N-1 conflicts.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	PostgresDSN string
}

type DataPool struct {
	Patients  []uuid.UUID
	Services  []uuid.UUID
	BranchID  uuid.UUID
	DoctorID  uuid.UUID
	mu        sync.RWMutex
	openSlots []string
}

func (dp *DataPool) SetSlots(slots []string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.openSlots = slots
}

func (dp *DataPool) RandomSlot() (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.openSlots) == 0 {
		return "", false
	}
	return dp.openSlots[rand.Intn(len(dp.openSlots))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	Latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()

	poolCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pgPool, err := db.ConnectPostgres(poolCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	data, err := loadDataPool(context.Background(), pgPool)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("data pool: %d patients, %d services", len(data.Patients), len(data.Services))

	slotMetrics := &OperationMetrics{}
	bookMetrics := &OperationMetrics{}

	client := &http.Client{Timeout: 10 * time.Second}
	deadline := time.Now().Add(cfg.Duration)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				refreshSlots(client, cfg, data, slotMetrics)
				tryBooking(client, cfg, data, bookMetrics)
			}
		}()
	}
	wg.Wait()

	report("slot queries", slotMetrics)
	report("bookings", bookMetrics)
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		Duration:    30 * time.Second,
		Workers:     8,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Duration = d
		}
	}
	return cfg
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dp := &DataPool{
		BranchID: uuid.New(),
		DoctorID: uuid.New(),
	}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT 200`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Patients = append(dp.Patients, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	svcRows, err := pool.Query(ctx, `SELECT id FROM services`)
	if err != nil {
		return nil, err
	}
	defer svcRows.Close()
	for svcRows.Next() {
		var id uuid.UUID
		if err := svcRows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Services = append(dp.Services, id)
	}
	if err := svcRows.Err(); err != nil {
		return nil, err
	}

	if len(dp.Patients) == 0 || len(dp.Services) == 0 {
		return nil, fmt.Errorf("empty data pool, run cmd/seed first")
	}
	return dp, nil
}

func refreshSlots(client *http.Client, cfg SimConfig, data *DataPool, metrics *OperationMetrics) {
	day := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	serviceID := data.Services[rand.Intn(len(data.Services))]

	url := fmt.Sprintf("%s/slots?date=%s&service_id=%s&doctor_id=%s",
		cfg.APIBaseURL, day, serviceID, data.DoctorID)

	start := time.Now()
	resp, err := client.Get(url)
	latency := time.Since(start)
	if err != nil {
		metrics.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.Record(latency, false, false)
		return
	}

	var slots []struct {
		Time string `json:"time"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		metrics.Record(latency, false, false)
		return
	}

	times := make([]string, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.Time)
	}
	data.SetSlots(times)
	metrics.Record(latency, true, false)
}

func tryBooking(client *http.Client, cfg SimConfig, data *DataPool, metrics *OperationMetrics) {
	slot, ok := data.RandomSlot()
	if !ok {
		return
	}

	day := time.Now().AddDate(0, 0, 1)
	startTime, err := time.ParseInLocation("2006-01-02 15:04", day.Format("2006-01-02")+" "+slot, time.Local)
	if err != nil {
		return
	}

	body, _ := json.Marshal(map[string]string{
		"patient_id": data.Patients[rand.Intn(len(data.Patients))].String(),
		"service_id": data.Services[rand.Intn(len(data.Services))].String(),
		"branch_id":  data.BranchID.String(),
		"doctor_id":  data.DoctorID.String(),
		"start_time": startTime.Format(time.RFC3339),
	})

	start := time.Now()
	resp, err := client.Post(cfg.APIBaseURL+"/appointments", "application/json", bytes.NewReader(body))
	latency := time.Since(start)
	if err != nil {
		metrics.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		metrics.Record(latency, true, false)
	case http.StatusConflict:
		metrics.Record(latency, false, true)
	default:
		metrics.Record(latency, false, false)
	}
}

func report(name string, m *OperationMetrics) {
	avg, p50, p95 := m.Stats()
	log.Printf("%s: total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s",
		name,
		atomic.LoadInt64(&m.Total),
		atomic.LoadInt64(&m.Success),
		atomic.LoadInt64(&m.Conflict),
		atomic.LoadInt64(&m.Error),
		avg, p50, p95,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

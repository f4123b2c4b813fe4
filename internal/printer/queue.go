package printer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/puntoventa/ticket-engine/internal/usb"
)

// PrintJob is one queued text payload.
type PrintJob struct {
	ID        string
	PrinterID string
	Text      string
	Retries   int
	Status    string // queued, printing, failed, completed
	Message   string // outcome message of the last attempt
	Error     error
	CreatedAt time.Time
}

// PrintQueue runs print jobs through the session service with retry logic.
type PrintQueue struct {
	jobs       []*PrintJob
	mu         sync.Mutex
	service    *Service
	manager    *Manager
	maxRetries int
	variant    Variant
	onUpdate   func(*PrintJob)
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewPrintQueue creates a queue and starts its worker.
func NewPrintQueue(service *Service, manager *Manager, maxRetries int) *PrintQueue {
	ctx, cancel := context.WithCancel(context.Background())

	q := &PrintQueue{
		jobs:       make([]*PrintJob, 0),
		service:    service,
		manager:    manager,
		maxRetries: maxRetries,
		variant:    VariantGeneric,
		ctx:        ctx,
		cancel:     cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// SetVariant selects the encoding variant for serial jobs. USB jobs take the
// session service's variant.
func (q *PrintQueue) SetVariant(v Variant) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.variant = v
}

// OnJobUpdate sets a callback fired after every job state change.
func (q *PrintQueue) OnJobUpdate(callback func(*PrintJob)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onUpdate = callback
}

// Enqueue adds a print job. printerID may be empty, in which case the session
// selects a device from the current USB snapshot.
func (q *PrintQueue) Enqueue(printerID, text string) string {
	job := &PrintJob{
		ID:        fmt.Sprintf("job_%d", time.Now().UnixNano()),
		PrinterID: printerID,
		Text:      text,
		Status:    "queued",
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	q.notify(job)

	return job.ID
}

func (q *PrintQueue) worker() {
	defer q.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processNextJob()
		}
	}
}

func (q *PrintQueue) processNextJob() {
	q.mu.Lock()

	var job *PrintJob
	for _, j := range q.jobs {
		if j.Status == "queued" {
			job = j
			job.Status = "printing"
			break
		}
	}

	q.mu.Unlock()

	if job == nil {
		return
	}
	q.notify(job)

	message, err := q.printJob(job)

	q.mu.Lock()
	job.Message = message
	if err != nil {
		job.Retries++
		job.Error = err

		if job.Retries >= q.maxRetries {
			job.Status = "failed"
		} else {
			job.Status = "queued" // retry
		}
	} else {
		job.Status = "completed"
		job.Error = nil
	}
	q.mu.Unlock()

	q.notify(job)
}

// printJob runs one attempt and reports the outcome message. A partial
// success counts as success: the session already delivered what it could, and
// re-running the whole plan would reprint the ticket.
func (q *PrintQueue) printJob(job *PrintJob) (string, error) {
	if job.PrinterID == "" {
		outcome := q.service.PrintSync(job.Text, q.manager.USBDevices())
		if !outcome.Success {
			return outcome.Message, fmt.Errorf("print failed: %s", outcome.Message)
		}
		return outcome.Message, nil
	}

	printer := q.manager.GetPrinter(job.PrinterID)
	if printer == nil {
		return "", fmt.Errorf("printer not found: %s", job.PrinterID)
	}

	switch printer.Type {
	case "usb":
		dev, ok := q.manager.USBDevice(job.PrinterID)
		if !ok {
			return "", fmt.Errorf("printer not found: %s", job.PrinterID)
		}
		outcome := q.service.PrintSync(job.Text, []usb.DeviceDescriptor{dev})
		if !outcome.Success {
			return outcome.Message, fmt.Errorf("print failed: %s", outcome.Message)
		}
		return outcome.Message, nil

	case "serial":
		if err := printSerial(printer.Device, BuildPlan(job.Text, q.variant)); err != nil {
			return err.Error(), err
		}
		return msgDone, nil

	default:
		return "", fmt.Errorf("unsupported printer type: %s", printer.Type)
	}
}

// GetJob returns a copy of a job by ID.
func (q *PrintQueue) GetJob(jobID string) *PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			jobCopy := *job
			return &jobCopy
		}
	}

	return nil
}

// GetAllJobs returns copies of all jobs.
func (q *PrintQueue) GetAllJobs() []*PrintJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]*PrintJob, len(q.jobs))
	for i, job := range q.jobs {
		jobCopy := *job
		jobs[i] = &jobCopy
	}

	return jobs
}

// ClearCompleted removes completed jobs from the queue.
func (q *PrintQueue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*PrintJob, 0)
	for _, job := range q.jobs {
		if job.Status != "completed" {
			filtered = append(filtered, job)
		}
	}

	q.jobs = filtered
}

// Stop stops the queue worker. Jobs already transmitting run to completion.
func (q *PrintQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}

func (q *PrintQueue) notify(job *PrintJob) {
	q.mu.Lock()
	callback := q.onUpdate
	jobCopy := *job
	q.mu.Unlock()

	if callback != nil {
		callback(&jobCopy)
	}
}

// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/puntoventa/ticket-engine/internal/command"
	"github.com/puntoventa/ticket-engine/internal/printer"
)

// Server is the API server
type Server struct {
	router   *gin.Engine
	manager  *printer.Manager
	queue    *printer.PrintQueue
	executor *command.Executor
	upgrader websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(manager *printer.Manager, queue *printer.PrintQueue) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.Default()
	router.Use(corsMiddleware())

	server := &Server{
		router:   router,
		manager:  manager,
		queue:    queue,
		executor: command.NewExecutor(manager, queue),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	// HTTP API
	s.router.GET("/printers", s.handleGetPrinters)
	s.router.POST("/printer/:id/name", s.handleSetPrinterName)
	s.router.POST("/print", s.handlePrint)
	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)

	// Command endpoint
	s.router.POST("/command", s.handleCommand)

	// WebSocket
	s.router.GET("/ws", s.handleWebSocket)

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// handleGetPrinters returns all detected printers
func (s *Server) handleGetPrinters(c *gin.Context) {
	printers := s.manager.GetAllPrinters()

	c.JSON(200, gin.H{
		"printers": printers,
	})
}

// handleSetPrinterName sets a custom name for a printer
func (s *Server) handleSetPrinterName(c *gin.Context) {
	printerID := c.Param("id")

	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "name is required"})
		return
	}

	success := s.manager.SetPrinterName(printerID, req.Name)

	if !success {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// handlePrint enqueues a text print job. printer_id is optional: without it
// the session picks the best USB candidate from the last scan.
func (s *Server) handlePrint(c *gin.Context) {
	var req struct {
		PrinterID string `json:"printer_id"`
		Text      string `json:"text" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "text is required"})
		return
	}

	if req.PrinterID != "" && s.manager.GetPrinter(req.PrinterID) == nil {
		c.JSON(404, gin.H{"error": "printer not found"})
		return
	}

	jobID := s.queue.Enqueue(req.PrinterID, req.Text)

	c.JSON(200, gin.H{
		"success": true,
		"job_id":  jobID,
	})
}

// handleGetJobs returns all print jobs
func (s *Server) handleGetJobs(c *gin.Context) {
	jobs := s.queue.GetAllJobs()

	jobsData := make([]map[string]interface{}, len(jobs))
	for i, job := range jobs {
		jobsData[i] = jobJSON(job)
	}

	c.JSON(200, gin.H{"jobs": jobsData})
}

// handleGetJob returns a specific print job
func (s *Server) handleGetJob(c *gin.Context) {
	jobID := c.Param("id")

	job := s.queue.GetJob(jobID)
	if job == nil {
		c.JSON(404, gin.H{"error": "job not found"})
		return
	}

	c.JSON(200, jobJSON(job))
}

func jobJSON(job *printer.PrintJob) map[string]interface{} {
	data := map[string]interface{}{
		"id":         job.ID,
		"printer_id": job.PrinterID,
		"status":     job.Status,
		"retries":    job.Retries,
		"created_at": job.CreatedAt,
	}
	if job.Message != "" {
		data["message"] = job.Message
	}
	if job.Error != nil {
		data["error"] = job.Error.Error()
	}
	return data
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(req.Command)

	if result.Success {
		response := gin.H{
			"success": true,
		}
		if result.Message != "" {
			response["message"] = result.Message
		}
		if result.Data != nil {
			for k, v := range result.Data {
				response[k] = v
			}
		}
		c.JSON(200, response)
	} else {
		c.JSON(400, gin.H{
			"success": false,
			"error":   result.Error,
		})
	}
}

// Run starts the API server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

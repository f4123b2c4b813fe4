package api

import (
	"fmt"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/puntoventa/ticket-engine/internal/printer"
)

// WebSocket message types
const (
	EventPrint          = "print"
	EventPrinterAdded   = "printer_added"
	EventPrinterRemoved = "printer_removed"
	EventJobUpdate      = "job_update"
	EventResponse       = "response"
	EventError          = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
	mu     sync.Mutex
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}

	go client.readPump()
	go client.writePump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.mu.Lock()
		err := c.conn.WriteJSON(msg)
		c.mu.Unlock()

		if err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		removeClient(c)
		c.conn.Close()
	}()

	addClient(c)

	for {
		var msg WSMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventPrint:
		c.handlePrintEvent(msg.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

// handlePrintEvent enqueues a print job requested over the socket.
func (c *WSClient) handlePrintEvent(data map[string]interface{}) {
	text, ok := data["text"].(string)
	if !ok || text == "" {
		c.sendError("text is required")
		return
	}

	printerID, _ := data["printer_id"].(string)
	if printerID != "" && c.server.manager.GetPrinter(printerID) == nil {
		c.sendError(fmt.Sprintf("printer not found: %s", printerID))
		return
	}

	jobID := c.server.queue.Enqueue(printerID, text)

	c.sendResponse(map[string]interface{}{
		"success": true,
		"job_id":  jobID,
	})
}

func (c *WSClient) sendResponse(data map[string]interface{}) {
	c.send <- WSMessage{
		Event: EventResponse,
		Data:  data,
	}
}

func (c *WSClient) sendError(message string) {
	c.send <- WSMessage{
		Event: EventError,
		Data: map[string]interface{}{
			"error": message,
		},
	}
}

// Client tracking for broadcasts
var (
	clients   = make(map[*WSClient]bool)
	clientsMu sync.RWMutex
)

func addClient(client *WSClient) {
	clientsMu.Lock()
	clients[client] = true
	clientsMu.Unlock()
}

func removeClient(client *WSClient) {
	clientsMu.Lock()
	delete(clients, client)
	clientsMu.Unlock()
}

func broadcast(message WSMessage) {
	clientsMu.RLock()
	defer clientsMu.RUnlock()

	for client := range clients {
		select {
		case client.send <- message:
		default:
			// Client send buffer full, skip
		}
	}
}

// BroadcastPrinterAdded broadcasts a printer added event to all connected clients
func (s *Server) BroadcastPrinterAdded(p *printer.Printer) {
	broadcast(WSMessage{
		Event: EventPrinterAdded,
		Data: map[string]interface{}{
			"id":          p.ID,
			"type":        p.Type,
			"description": p.Description,
			"name":        p.Name,
		},
	})
}

// BroadcastPrinterRemoved broadcasts a printer removed event to all connected clients
func (s *Server) BroadcastPrinterRemoved(printerID string) {
	broadcast(WSMessage{
		Event: EventPrinterRemoved,
		Data: map[string]interface{}{
			"id": printerID,
		},
	})
}

// BroadcastJobUpdate broadcasts a job state change to all connected clients
func (s *Server) BroadcastJobUpdate(job *printer.PrintJob) {
	data := map[string]interface{}{
		"id":         job.ID,
		"printer_id": job.PrinterID,
		"status":     job.Status,
		"retries":    job.Retries,
	}
	if job.Message != "" {
		data["message"] = job.Message
	}
	if job.Error != nil {
		data["error"] = job.Error.Error()
	}

	broadcast(WSMessage{
		Event: EventJobUpdate,
		Data:  data,
	})
}

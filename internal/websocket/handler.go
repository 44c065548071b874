package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches conn to the hub as a watcher of documentID and blocks until it closes.
func ServeWs(hub *Hub, conn *websocket.Conn, documentID string) {
	client := &Client{Hub: hub, Conn: conn, DocumentID: documentID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}

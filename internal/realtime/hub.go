package realtime

// Hub owns the set of websocket clients and fans snapshots out to the ones
// that joined the queue room. A connected client receives nothing until it
// sends "join"; map value tracks that transition.
type Hub struct {
	clients map[*Client]bool

	// Full-state snapshots to deliver to every joined client.
	broadcast chan []byte

	register   chan *Client
	subscribe  chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		subscribe:  make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = false

		case client := <-h.subscribe:
			if _, ok := h.clients[client]; ok {
				h.clients[client] = true
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				_ = client.conn.Close()
			}

		case message := <-h.broadcast:
			for client, joined := range h.clients {
				if !joined {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than block the fan-out.
					delete(h.clients, client)
					close(client.send)
					_ = client.conn.Close()
				}
			}
		}
	}
}

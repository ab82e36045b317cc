package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"gridmdp/reinforcement"
	"gridmdp/server/cell_views"
	"gridmdp/server/fastview"
	"gridmdp/server/root_view"
)

const shutdownGracePeriod = 5 * time.Second

// Server serves a live view of one solver run: the index page, a websocket of element
// updates, and a JSON status endpoint. The update stream is consumed by one page at a
// time; a second page steals updates from the first.
type Server struct {
	addr      string
	problem   *reinforcement.Problem
	tracker   *reinforcement.Tracker
	snapshots chan cell_views.Snapshot
	latest    atomic.Value // cell_views.Snapshot
	rootView  *root_view.RootView
}

// NewServer builds the views for problem. The views shut down with ctx.
func NewServer(
	ctx context.Context,
	addr string,
	problem *reinforcement.Problem,
) (*Server, error) {
	server := &Server{
		addr:      addr,
		problem:   problem,
		tracker:   reinforcement.NewTracker(),
		snapshots: make(chan cell_views.Snapshot, 1),
	}
	server.latest.Store(cell_views.InitialSnapshot(problem.Grid))

	rootView, err := root_view.NewRootView(ctx, server.snapshots)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	server.rootView = rootView
	return server, nil
}

// Observe is a reinforcement.ProgressFunc feeding the views and the status endpoint.
// It never blocks the solver: when the views lag, stale snapshots are replaced.
func (server *Server) Observe(ctx context.Context, pr reinforcement.Progress) {
	server.tracker.Observe(ctx, pr)

	snap := cell_views.NewSnapshot(server.problem, pr)
	server.latest.Store(snap)
	for {
		select {
		case server.snapshots <- snap:
			return
		default:
		}
		select {
		case <-server.snapshots:
		default:
		}
	}
}

// Tracker exposes the solver status the server reports.
func (server *Server) Tracker() *reinforcement.Tracker {
	return server.tracker
}

// Router returns the server's routes.
func (server *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/status", server.serveStatus).Methods(http.MethodGet)
	return router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) (err error) {
	httpServer := &http.Server{
		Addr:    server.addr,
		Handler: server.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Println("server shutdown:", shutdownErr)
		}
	}()

	log.Printf("serving on %s\n", server.addr)
	if err = httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the page until it disconnects.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	client, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		log.Println(err)
		return
	}

	if err = client.Sync(); err != nil {
		log.Println("websocket:", err)
	}
}

func (server *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(server.tracker.Status()); err != nil {
		log.Println("status:", err)
	}
}

// serveIndex renders the page from the latest snapshot; the websocket takes it from there.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	board := cell_views.Convert(server.latest.Load().(cell_views.Snapshot))
	if err := renderTemplate(w, server.rootView, board); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}
	return t.Execute(w, data)
}

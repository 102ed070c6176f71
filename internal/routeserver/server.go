package routeserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/signalsfoundry/geospatial-navigator/internal/logging"
	"github.com/signalsfoundry/geospatial-navigator/internal/routing"
)

// Server exposes a Store over HTTP.
type Server struct {
	store  *Store
	log    logging.Logger
	engine *gin.Engine
}

// NewServer builds the gin engine with /route, /places and /health.
func NewServer(store *Store, log logging.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if log == nil {
		log = logging.Noop()
	}

	s := &Server{store: store, log: log, engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/health", s.health)
	s.engine.GET("/places", s.places)
	s.engine.GET("/route", s.route)
	return s, nil
}

// Handler returns the HTTP handler, instrumented with OpenTelemetry.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.engine, "route-server")
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) places(c *gin.Context) {
	places, err := s.store.ListPlaces(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, routing.PlacesResponse{Places: places})
}

// route answers GET /route?origin_lat=..&origin_lon=..&destination_id=..
func (s *Server) route(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("origin_lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("origin_lon"), 64)
	if errLat != nil || errLon != nil || validCoordinate(lat, lon) != nil {
		c.JSON(http.StatusBadRequest, routing.RouteResponse{Error: "invalid origin"})
		return
	}
	dest, err := strconv.ParseInt(c.Query("destination_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, routing.RouteResponse{Error: ErrUnknownDestination.Error()})
		return
	}

	ctx := c.Request.Context()
	place, err := s.store.GetPlace(ctx, dest)
	if errors.Is(err, ErrUnknownDestination) {
		c.JSON(http.StatusNotFound, routing.RouteResponse{Error: ErrUnknownDestination.Error()})
		return
	}
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	path, err := s.store.Path(ctx, dest)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	route := PlanRoute(lat, lon, place, path)
	c.JSON(http.StatusOK, routing.RouteResponse{Nodes: routing.NodesFromWaypoints(route)})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": "internal error"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Any("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
			s.log.Warn(c.Request.Context(), "request failed", fields...)
			return
		}
		s.log.Debug(c.Request.Context(), "request served", fields...)
	}
}

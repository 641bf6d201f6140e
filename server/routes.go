package server

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

var systemPaths = map[string]bool{
	"/health":  true,
	"/version": true,
}

var methodOrder = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Routes returns the registered routes: API routes first by path, then
// the system endpoints.
func (s *Server) Routes() gin.RoutesInfo {
	routes := s.engine.Routes()
	slices.SortFunc(routes, func(a, b gin.RouteInfo) int {
		if systemPaths[a.Path] != systemPaths[b.Path] {
			if systemPaths[a.Path] {
				return 1
			}
			return -1
		}
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return methodRank(a.Method) - methodRank(b.Method)
	})
	return routes
}

// LogRoutes logs every registered route at debug level.
func (s *Server) LogRoutes() {
	for _, r := range s.Routes() {
		s.log.Debug("Route registered", map[string]interface{}{
			"method":  r.Method,
			"path":    r.Path,
			"handler": handlerName(r.Handler),
			"system":  systemPaths[r.Path],
		})
	}
}

func methodRank(method string) int {
	if i := slices.Index(methodOrder, method); i >= 0 {
		return i
	}
	return len(methodOrder)
}

// handlerName shortens Gin's handler path:
// "github.com/kbukum/authkit/authenticator.(*Handler).Login-fm" becomes
// "Handler.Login"; closures keep the name of their constructor.
func handlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	for len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health answers liveness probes.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready pings MySQL and, when configured, Redis.  Redis is optional, so a
// failing ping there is reported but does not fail the probe.
func Ready(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		out := echo.Map{"mysql": "ok"}
		status := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			out["mysql"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			out["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				out["redis"] = err.Error()
			}
		}
		return c.JSON(status, out)
	}
}

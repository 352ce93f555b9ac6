package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/consiliumhq/signaling/internal/adapters/signal"
	"github.com/consiliumhq/signaling/internal/app"
	"github.com/consiliumhq/signaling/internal/config"
	"github.com/consiliumhq/signaling/internal/core"
	"github.com/consiliumhq/signaling/internal/domain"
)

// SetupRouter wires the websocket endpoint and the read-only REST
// projections of live registry state for the dashboard.
func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator, ctl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		rooms := coord.Rooms.Rooms()
		c.JSON(http.StatusOK, gin.H{
			"rooms": rooms,
			"total": lo.SumBy(rooms, func(info core.RoomInfo) int { return info.MemberCount }),
		})
	})

	api.GET("/rooms/:id/members", func(c *gin.Context) {
		room := domain.RoomID(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{
			"roomId":  room,
			"members": coord.RoomMembers(c.Request.Context(), room),
		})
	})

	api.GET("/ws/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	return r
}

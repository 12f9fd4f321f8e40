// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/go-media-engagement/internal/analysis"
	"github.com/jaycherian/go-media-engagement/internal/engine"
	"github.com/jaycherian/go-media-engagement/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState()
	slog.Info("Initialized State")

	r := gin.Default()

	// Add OpenTelemetry middleware
	r.Use(otelgin.Middleware(config.Application.Name))

	// Allow all origins, methods, and headers. Safe for local development and
	// keeps frontend experiments friction-free.
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		AnalysisRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Application.Port),
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", config.Application.Port)

	// Wait for an interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give in-flight requests 5 seconds to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// analysisRequest is the body of POST /api/v1/analysis. The source duration
// is derived from the analysis itself, never trusted from the client.
type analysisRequest struct {
	SourcePath      string `json:"source_path" binding:"required"`
	SegmentCount    int    `json:"segment_count"`
	SegmentDuration int    `json:"segment_duration"`
}

// AnalysisRouter sets up the engagement analysis routes.
func AnalysisRouter(r *gin.RouterGroup) {
	group := r.Group("/analysis")
	{
		group.POST("", func(c *gin.Context) {
			var req analysisRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if req.SegmentCount <= 0 {
				req.SegmentCount = 3
			}
			if err := analysis.ValidateVideo(req.SourcePath); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			result, err := state.engagement.AnalyzeAll(c.Request.Context(), req.SourcePath)
			if err != nil {
				slog.Error("analysis failed", "source", req.SourcePath, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}

			totalDuration := result.TotalDurationSeconds(state.config.Analysis.IntervalSeconds)
			segments, err := state.selector.GetBestSegments(
				c.Request.Context(),
				result.Audio.Timeline,
				result.Visual.Timeline,
				result.Speech.Timeline,
				req.SegmentDuration,
				req.SegmentCount,
				totalDuration,
				state.config.Analysis.IntervalSeconds,
			)
			if err != nil {
				slog.Error("segment selection failed", "source", req.SourcePath, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}

			if dir := state.config.Analysis.ExportDir; len(dir) > 0 {
				export := engine.NewSelectionExport(req.SourcePath, state.config.Engagement, segments, totalDuration)
				if path, err := engine.WriteSelectionExport(dir, export); err != nil {
					slog.Warn("failed to write selection export", "error", err)
				} else {
					slog.Info("selection export written", "path", path)
				}
			}

			c.JSON(http.StatusOK, gin.H{
				"analysis": result,
				"segments": segments,
			})
		})

		group.GET("/progress", func(c *gin.Context) {
			c.JSON(http.StatusOK, state.engagement.CurrentProgress())
		})
	}
}

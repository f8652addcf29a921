package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleHealth returns liveness information
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

// handleStatus returns the last scan cycle summary
func (s *Server) handleStatus(c *gin.Context) {
	cycle := s.loop.LastCycle()
	if cycle == nil {
		c.JSON(http.StatusOK, gin.H{
			"running":    true,
			"last_cycle": nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"running": true,
		"last_cycle": gin.H{
			"scan_id":         cycle.ScanID,
			"start_time":      cycle.StartTime,
			"duration_ms":     cycle.Duration.Milliseconds(),
			"symbols_scanned": cycle.SymbolsScanned,
			"signals_emitted": cycle.SignalsEmitted,
		},
		"connected_clients": s.clientCount(),
	})
}

// handleResults returns every evaluation from the last cycle, including
// filtered ones with their reasons
func (s *Server) handleResults(c *gin.Context) {
	cycle := s.loop.LastCycle()
	if cycle == nil {
		c.JSON(http.StatusOK, gin.H{"results": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scan_id": cycle.ScanID,
		"results": cycle.Results,
	})
}

// handleSignals returns the retained accepted signals
func (s *Server) handleSignals(c *gin.Context) {
	signals := s.loop.RecentSignals()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(signals),
		"signals": signals,
	})
}

// handleDiagnostics returns the latest evaluation for one symbol with the
// full audit bundle
func (s *Server) handleDiagnostics(c *gin.Context) {
	symbol := c.Param("symbol")
	result, ok := s.loop.LastResult(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no evaluation recorded for " + symbol})
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleScanNow triggers an immediate cycle outside the interval
func (s *Server) handleScanNow(c *gin.Context) {
	cycle := s.loop.RunCycle()
	c.JSON(http.StatusOK, gin.H{
		"scan_id":         cycle.ScanID,
		"symbols_scanned": cycle.SymbolsScanned,
		"signals_emitted": cycle.SignalsEmitted,
	})
}

func (s *Server) clientCount() int {
	if s.hub == nil {
		return 0
	}
	return s.hub.ClientCount()
}

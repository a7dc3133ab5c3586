// This is a http type of reporter.
// It fetches data from the deposit/redemption ledgers in state/statedb
// and publishes them on the http routes.

package reporter

import (
	"net/http"
	"strconv"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/TEENet-io/wrap-go/state"
)

const (
	ROUTE_HELLO       = "/hello"
	ROUTE_DEPOSIT     = "/deposit"
	ROUTE_REDEMPTION  = "/redemption"
	ROUTE_REDEMPTIONS = "/redemptions"
)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data source
	statedb *state.StateDB
}

func NewHttpReporter(serverIP string, serverPort string, statedb *state.StateDB) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		statedb:    statedb,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Define routes & handlers
	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_DEPOSIT, h.Deposit)
	router.GET(ROUTE_REDEMPTION, h.Redemption)
	router.GET(ROUTE_REDEMPTIONS, h.Redemptions)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

// Fetch one deposit by its external tx id.
func (h *HttpReporter) Deposit(c *gin.Context) {
	txId := c.Query("tx_id")
	if txId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tx_id must be provided"})
		return
	}

	d, ok, err := h.statedb.GetDeposit(ethcommon.HexToHash(txId))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No deposit found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": d})
}

// Fetch one redemption log entry by its index.
func (h *HttpReporter) Redemption(c *gin.Context) {
	idxStr := c.Query("idx")
	if idxStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be provided"})
		return
	}
	idx, err := strconv.ParseUint(idxStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a number"})
		return
	}

	r, ok, err := h.statedb.GetRedemption(idx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No redemption found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": r})
}

// Fetch redemption log entries by processed state.
// ?processed=true|false, defaults to false (still awaiting settlement).
func (h *HttpReporter) Redemptions(c *gin.Context) {
	processed := false
	if s := c.Query("processed"); s != "" {
		var err error
		processed, err = strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "processed must be a bool"})
			return
		}
	}

	rs, err := h.statedb.GetRedemptionsByProcessed(processed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rs, "count": len(rs)})
}

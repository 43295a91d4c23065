package diagnostics_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/paragon/diagnostics"
	"github.com/latticeforge/paragon/mcts"
	"github.com/latticeforge/paragon/tree"
)

func TestVisitDeltasRendersRootEdgeSummary(t *testing.T) {
	edges := []mcts.EdgeSummary[int]{
		{Action: 1, Edge: tree.EdgeInfo[int]{Prior: 0.5, N: 3}},
		{Action: -1, Edge: tree.EdgeInfo[int]{Prior: 0.5, N: 7}},
	}
	deltas := diagnostics.VisitDeltas(edges)
	require.Len(t, deltas, 2)
	assert.Equal(t, "1", deltas[0].Action)
	assert.EqualValues(t, 3, deltas[0].N)
	assert.Equal(t, "-1", deltas[1].Action)
	assert.EqualValues(t, 7, deltas[1].N)
}

func TestServerStreamsDeltasOverWebsocket(t *testing.T) {
	updates := make(chan []diagnostics.VisitDelta, 1)
	srv := diagnostics.NewServer("", updates)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + ts.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	updates <- []diagnostics.VisitDelta{{Action: "1", N: 5}}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got []diagnostics.VisitDelta
	require.NoError(t, conn.ReadJSON(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Action)
	assert.EqualValues(t, 5, got[0].N)

	close(updates)
}

package queryapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/cambia/internal/catalog"
	"github.com/jason-s-yu/cambia/internal/lobbystore"
	"github.com/jason-s-yu/cambia/internal/veto"
)

func doGet(t *testing.T, h http.HandlerFunc) map[string]interface{} {
	t.Helper()
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestCardColorsHandler(t *testing.T) {
	cat := catalog.NewStore()
	out := doGet(t, CardColorsHandler(cat))
	assert.Equal(t, "#1b6ef3", out["team1"])
}

func TestCoinFlipHandler(t *testing.T) {
	cat := catalog.NewStore()
	out := doGet(t, CoinFlipHandler(cat))
	assert.Equal(t, true, out["coinFlipDefault"])
}

func TestRuntimeEnvHandler(t *testing.T) {
	cat := catalog.NewStore()
	out := doGet(t, RuntimeEnvHandler(cat, true))
	assert.Equal(t, true, out["adminAuthRequired"])
	families, ok := out["gameFamilies"].([]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{"fps", "splatoon"}, families)
}

func TestMapPoolHandler(t *testing.T) {
	cat := catalog.NewStore()
	out := doGet(t, MapPoolHandler(cat))
	fps7, ok := out["fps7"].([]interface{})
	require.True(t, ok)
	assert.Len(t, fps7, 7)
}

func TestLobbiesHandlerSerializesTeamNamesInJoinOrder(t *testing.T) {
	store := lobbystore.New()
	l, err := veto.NewFPSLobby(veto.FPSLobbyConfig{ID: "lobby-1", GameType: "bo1", MapPoolSize: 7})
	require.NoError(t, err)
	require.NoError(t, l.AddMember("connA"))
	require.NoError(t, l.AddMember("connB"))
	require.NoError(t, l.SetTeamName("connA", "Alpha"))
	require.NoError(t, l.SetTeamName("connB", "Bravo"))
	store.Create(l)

	rr := httptest.NewRecorder()
	LobbiesHandler(store)(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "fps", out[0]["gameFamily"])
	assert.Equal(t, float64(2), out[0]["memberCount"])

	teamNames, ok := out[0]["teamNames"].([]interface{})
	require.True(t, ok)
	require.Len(t, teamNames, 2)
	first := teamNames[0].(map[string]interface{})
	assert.Equal(t, "Alpha", first["teamName"])
}

package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcast-rag-go/internal/chunker"
	"podcast-rag-go/internal/config"
	"podcast-rag-go/internal/conversation"
	"podcast-rag-go/internal/loader"
	"podcast-rag-go/internal/middleware"
	"podcast-rag-go/internal/pipeline"
	"podcast-rag-go/internal/prompt"
	"podcast-rag-go/internal/retriever"
	"podcast-rag-go/internal/service"
	"podcast-rag-go/internal/session"
	"podcast-rag-go/internal/testutil"
	"podcast-rag-go/internal/vectorindex"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, gen *testutil.FakeGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	emb := testutil.NewFakeEmbedder()
	splitter, err := chunker.New(30, 5)
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	RegisterRoutes(r, Deps{
		Sessions:      session.NewManager(config.SessionConfig{}),
		Ingester:      pipeline.NewProcessor(loader.NewFileLoader(nil, 0), splitter, emb, vectorindex.NewMemoryStore(), 0),
		Chat:          service.NewChatService(retriever.New(emb, config.RetrieverConfig{}), prompt.New(config.PromptConfig{}), gen),
		Conversation:  service.NewConversationService(),
		MaxUploadSize: 1 << 20,
	})
	return r
}

func do(t *testing.T, r http.Handler, req *http.Request, sessionID string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func uploadRequest(t *testing.T, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func askRequestJSON(question string) *http.Request {
	b, _ := json.Marshal(map[string]string{"question": question})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSessionCreatedAndEchoed(t *testing.T) {
	r := newTestRouter(t, testutil.NewFakeGenerator("x"))

	w, env := do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, session.StatusIdle, env.Message)

	var info session.Info
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, id, info.ID)
	assert.False(t, info.Ready)
	assert.Equal(t, 1, info.Turns)

	w, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil), id)
	assert.Equal(t, id, w.Header().Get(middleware.SessionHeader))
}

func TestUploadAskAndSources(t *testing.T) {
	r := newTestRouter(t, testutil.NewFakeGenerator("Episode 2 membahas perubahan iklim."))

	w, env := do(t, r, uploadRequest(t, "ep.txt", "Episode 1: AI safety. Episode 2: climate change."), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := w.Header().Get(middleware.SessionHeader)
	assert.Equal(t, "✅ ep.txt berhasil diproses!", env.Message)

	w, env = do(t, r, askRequestJSON("episode 2 climate?"), id)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.AskResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Grounded)
	assert.Equal(t, "Episode 2 membahas perubahan iklim.", res.Answer)
	assert.NotEmpty(t, res.Sources)

	w, env = do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/conversation/2/sources", nil), id)
	require.Equal(t, http.StatusOK, w.Code)
	var previews []service.SourcePreview
	require.NoError(t, json.Unmarshal(env.Data, &previews))
	assert.Len(t, previews, len(res.Sources))

	w, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/conversation/1/sources", nil), id)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/conversation/99/sources", nil), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/conversation/abc/sources", nil), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskBeforeUploadReturnsFallback(t *testing.T) {
	gen := testutil.NewFakeGenerator("unused")
	r := newTestRouter(t, gen)

	w, env := do(t, r, askRequestJSON("Apa topiknya?"), "")
	require.Equal(t, http.StatusOK, w.Code)
	var res service.AskResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, conversation.Fallback, res.Answer)
	assert.Zero(t, gen.PromptCount())
}

func TestErrorMapping(t *testing.T) {
	gen := testutil.NewFakeGenerator("")
	r := newTestRouter(t, gen)

	w, env := do(t, r, uploadRequest(t, "notes.docx", "hello"), "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.True(t, strings.HasPrefix(env.Message, "Terjadi kesalahan: "))
	id := w.Header().Get(middleware.SessionHeader)

	w, _ = do(t, r, askRequestJSON("  "), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, uploadRequest(t, "ep.txt", "Episode 1: AI safety."), id)
	require.Equal(t, http.StatusOK, w.Code)

	// 模型返回空回答视为生成失败
	w, _ = do(t, r, askRequestJSON("Apa topiknya?"), id)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, env = do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/conversation", nil), id)
	require.Equal(t, http.StatusOK, w.Code)
	var turns []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &turns))
	assert.Len(t, turns, 1)
}

func TestResetEndpoint(t *testing.T) {
	r := newTestRouter(t, testutil.NewFakeGenerator("x"))
	w, _ := do(t, r, uploadRequest(t, "ep.txt", "Episode 1: AI safety."), "")
	id := w.Header().Get(middleware.SessionHeader)

	w, env := do(t, r, httptest.NewRequest(http.MethodPost, "/api/v1/session/reset", nil), id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.StatusIdle, env.Message)
	var info session.Info
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.False(t, info.Ready)
	assert.Empty(t, info.Origin)
}

func TestWebsocketAsk(t *testing.T) {
	r := newTestRouter(t, testutil.NewFakeGenerator("Jawaban dari transcript."))
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "ep.txt", "Episode 1: AI safety. Episode 2: climate change."))
	require.Equal(t, http.StatusOK, resp.Code)
	id := resp.Header().Get(middleware.SessionHeader)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws"
	header := http.Header{}
	header.Set(middleware.SessionHeader, id)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"question":"climate?"}`)))

	var streamed strings.Builder
	var answer map[string]interface{}
	for {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var frame map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &frame))
		if chunk, ok := frame["chunk"].(string); ok {
			streamed.WriteString(chunk)
			continue
		}
		if frame["type"] == "answer" {
			answer = frame
			continue
		}
		if frame["type"] == "completion" {
			break
		}
	}
	require.NotNil(t, answer)
	assert.Equal(t, "Jawaban dari transcript.", answer["answer"])
	assert.Equal(t, "Jawaban dari transcript.", streamed.String())
	assert.Equal(t, true, answer["grounded"])
}

func TestParseQuestion(t *testing.T) {
	assert.Equal(t, "hi", parseQuestion([]byte(`{"question":"hi"}`)))
	assert.Equal(t, "plain text", parseQuestion([]byte("  plain text \n")))
	assert.Equal(t, "{broken", parseQuestion([]byte("{broken")))
}

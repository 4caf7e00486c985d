package validator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowhive/knowhive/app/store"
	"github.com/knowhive/knowhive/app/store/sqlstore"
	"github.com/knowhive/knowhive/app/validator"
	kherrors "github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/security"
	pkgsql "github.com/knowhive/knowhive/pkg/sqlstore"
	"github.com/knowhive/knowhive/pkg/testutils"
	"github.com/knowhive/knowhive/pkg/types"
)

type fixture struct {
	provider *sqlstore.Provider
	session  *pkgsql.Session
}

func setup(t *testing.T) fixture {
	t.Helper()
	p := sqlstore.NewProvider(testutils.NewMemoryProvider(t))
	require.NoError(t, p.Install(context.Background()))
	s := p.OpenSession(context.Background())
	t.Cleanup(s.Close)
	return fixture{provider: p, session: s}
}

func (f fixture) user(t *testing.T, email string) *types.User {
	t.Helper()
	u, err := f.provider.UserStore().Insert(context.Background(), map[string]any{
		"first_name": "Grace",
		"last_name":  "Hopper",
		"email":      email,
		"password":   "hash",
	})
	require.NoError(t, err)
	return u
}

func (f fixture) llm(t *testing.T, userID string) *types.LLM {
	t.Helper()
	l, err := f.provider.LLMStore().Insert(context.Background(), map[string]any{
		"user_id":    userID,
		"provider":   "openai",
		"model_name": "gpt-4o-mini",
	})
	require.NoError(t, err)
	return l
}

func (f fixture) kb(t *testing.T, userID, llmID, name string) *types.KnowledgeBase {
	t.Helper()
	data := types.KnowledgeBaseCreate{
		LLMModelID:       llmID,
		EmbeddingModelID: llmID,
		Name:             name,
	}.Serialize()
	data[types.COLUMN_USER_ID] = userID
	kb, err := f.provider.KnowledgeBaseStore().Insert(context.Background(), data)
	require.NoError(t, err)
	return kb
}

var ada = types.UserCreate{
	FirstName: "Ada",
	LastName:  "Lovelace",
	Email:     "Ada@Example.com",
	Password:  "Secr3t!pass",
}

func TestUserValidator_Save(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	v := validator.NewUserValidator(f.session, f.provider.UserStore(), ada, "")
	ok, err := v.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	require.True(t, ok)

	u, err := v.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, ada.Password, u.Password)
	assert.True(t, security.CheckPassword(u.Password, ada.Password))

	_, err = v.Save(ctx)
	assert.ErrorIs(t, err, kherrors.ErrValidatorUsed)
	_, err = v.IsValid(ctx, validator.OpSave)
	assert.ErrorIs(t, err, kherrors.ErrValidatorUsed)

	again := validator.NewUserValidator(f.session, f.provider.UserStore(), ada, "")
	ok, err = again.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{i18n.FIELD_EMAIL_TAKEN}, again.Errors()["email"])
}

func TestUserValidator_EmailTakenBySoftDeletedUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u := f.user(t, "ada@example.com")
	_, err := f.provider.UserStore().MarkDeletedByID(ctx, u.ID)
	require.NoError(t, err)

	v := validator.NewUserValidator(f.session, f.provider.UserStore(), ada, "")
	ok, err := v.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserValidator_PartialUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t, "ada@example.com")

	v := validator.NewUserValidator(f.session, f.provider.UserStore(), types.UserUpdate{
		FirstName: lo.ToPtr("Augusta"),
		Password:  lo.ToPtr("N3w!password"),
	}, u.ID)
	ok, err := v.IsValid(ctx, validator.OpUpdate)
	require.NoError(t, err)
	require.True(t, ok)

	updated, err := v.Update(ctx, u, true)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "Hopper", updated.LastName)
	assert.True(t, security.CheckPassword(updated.Password, "N3w!password"))
	assert.True(t, updated.UpdatedAt.After(u.UpdatedAt))
}

func TestUserValidator_FullUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t, "ada@example.com")

	v := validator.NewUserValidator(f.session, f.provider.UserStore(), types.UserUpdate{
		FirstName: lo.ToPtr("Augusta"),
		LastName:  lo.ToPtr("King"),
	}, u.ID)
	_, err := v.Update(ctx, u, false)
	assert.ErrorIs(t, err, kherrors.ErrInvalidInput)
	assert.Equal(t, validator.FieldErrors{"password": {i18n.FIELD_RULE_PREFIX + "required"}}, v.Errors())

	stored, err := f.provider.UserStore().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", stored.FirstName)
	assert.Equal(t, "hash", stored.Password)

	v = validator.NewUserValidator(f.session, f.provider.UserStore(), types.UserUpdate{
		FirstName: lo.ToPtr("Augusta"),
		LastName:  lo.ToPtr("King"),
		Password:  lo.ToPtr("N3w!password"),
	}, u.ID)
	updated, err := v.Update(ctx, u, false)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "King", updated.LastName)
	assert.True(t, security.CheckPassword(updated.Password, "N3w!password"))
}

func TestLLMValidator_FullUpdateResetsDefaults(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t, "ada@example.com")
	l, err := f.provider.LLMStore().Insert(ctx, map[string]any{
		"user_id":    u.ID,
		"provider":   "openai",
		"model_name": "gpt-4o-mini",
		"api_base":   "https://proxy.example.com/v1",
	})
	require.NoError(t, err)

	v := validator.NewLLMValidator(f.session, f.provider.LLMStore(), types.LLMUpdate{
		Provider:  lo.ToPtr("openai"),
		ModelName: lo.ToPtr("gpt-4o"),
	}, u.ID, nil)
	updated, err := v.Update(ctx, l, false)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", updated.ModelName)
	assert.Equal(t, "openai", updated.Provider)
	assert.Empty(t, updated.APIBase)

	v = validator.NewLLMValidator(f.session, f.provider.LLMStore(), types.LLMUpdate{
		ModelName: lo.ToPtr("gpt-4.1"),
	}, u.ID, nil)
	_, err = v.Update(ctx, updated, false)
	assert.ErrorIs(t, err, kherrors.ErrInvalidInput)
	assert.Contains(t, v.Errors(), "provider")
}

func TestBase_UpdateMissingEntity(t *testing.T) {
	f := setup(t)
	v := validator.NewUserValidator(f.session, f.provider.UserStore(), types.UserUpdate{
		FirstName: lo.ToPtr("Augusta"),
	}, "")

	_, err := v.Update(context.Background(), nil, true)
	assert.ErrorIs(t, err, kherrors.ErrNotFound)
	assert.NotErrorIs(t, err, kherrors.ErrConfiguration)
	var ce *kherrors.CustomizedError
	require.True(t, kherrors.As(err, &ce))
	assert.Equal(t, 404, ce.GetCode())
}

func TestBase_WithoutRepository(t *testing.T) {
	f := setup(t)
	v := validator.NewBase[types.User](f.session, nil, ada, "")

	ok, err := v.IsValid(context.Background(), validator.OpDefault)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = v.Save(context.Background())
	assert.ErrorIs(t, err, kherrors.ErrConfiguration)
	var ce *kherrors.CustomizedError
	require.True(t, kherrors.As(err, &ce))
	assert.Equal(t, 500, ce.GetCode())
}

func TestBase_RunQueries(t *testing.T) {
	f := setup(t)
	v := validator.NewBase[types.User](f.session, store.UserStore(f.provider.UserStore()), ada, "")

	slow := func(result bool, delay time.Duration) validator.Query {
		return func(ctx context.Context) (bool, error) {
			time.Sleep(delay)
			return result, nil
		}
	}
	results, err := v.RunQueries(context.Background(),
		[]validator.Query{slow(true, 20*time.Millisecond), slow(false, 0)},
		[]validator.RemoteCheck{func(context.Context) (bool, error) { return true, nil }},
	)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, results)

	boom := errors.New("boom")
	var cancelled atomic.Bool
	_, err = v.RunQueries(context.Background(), []validator.Query{
		func(context.Context) (bool, error) { return false, boom },
		func(ctx context.Context) (bool, error) {
			<-ctx.Done()
			cancelled.Store(true)
			return false, ctx.Err()
		},
	}, nil)
	assert.ErrorIs(t, err, boom)
	assert.True(t, cancelled.Load())
}

func TestBase_RunQueriesAfterSessionClosed(t *testing.T) {
	f := setup(t)
	v := validator.NewBase[types.User](f.session, store.UserStore(f.provider.UserStore()), ada, "")
	f.session.Close()

	_, err := v.RunQueries(context.Background(), []validator.Query{
		v.ValidateExists(types.TABLE_USER, "missing"),
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLLMValidator(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t, "ada@example.com")

	payload := types.LLMCreate{Provider: "openai", ModelName: "gpt-4o-mini", APIKey: "sk-test"}

	var seen string
	accept := func(_ context.Context, key, _ string) (bool, error) {
		seen = key
		return key == "sk-test", nil
	}
	v := validator.NewLLMValidator(f.session, f.provider.LLMStore(), payload, u.ID, accept)
	ok, err := v.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk-test", seen)
	assert.NotContains(t, v.Serialize(), types.LLM_SECRET_FIELD_API_KEY)

	l, err := v.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, l.UserID)

	payload.APIKey = "sk-wrong"
	rejected := validator.NewLLMValidator(f.session, f.provider.LLMStore(), payload, u.ID, accept)
	ok, err = rejected.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{i18n.FIELD_INVALID_API_KEY}, rejected.Errors()[types.LLM_SECRET_FIELD_API_KEY])

	failing := validator.NewLLMValidator(f.session, f.provider.LLMStore(), payload, u.ID,
		func(context.Context, string, string) (bool, error) { return false, errors.New("unreachable") })
	_, err = failing.IsValid(ctx, validator.OpSave)
	assert.Error(t, err)
}

func TestKnowledgeBaseValidator(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	mine := f.llm(t, owner.ID)
	theirs := f.llm(t, other.ID)
	existing := f.kb(t, owner.ID, mine.ID, "docs")

	v := validator.NewKnowledgeBaseValidator(f.session, f.provider.KnowledgeBaseStore(), types.KnowledgeBaseCreate{
		LLMModelID:       mine.ID,
		EmbeddingModelID: theirs.ID,
		Name:             "docs",
	}, owner.ID)
	ok, err := v.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, v.Errors(), "llm_model_id")
	assert.Equal(t, []string{i18n.FIELD_REFERENCE_MISSING}, v.Errors()["embedding_model_id"])
	assert.Equal(t, []string{i18n.FIELD_NAME_TAKEN}, v.Errors()["name"])

	// renaming to its own name is not a collision
	update := validator.NewKnowledgeBaseValidator(f.session, f.provider.KnowledgeBaseStore(), types.KnowledgeBaseUpdate{
		Name: lo.ToPtr("docs"),
	}, owner.ID)
	update.TargetID = existing.ID
	ok, err = update.IsValid(ctx, validator.OpUpdate)
	require.NoError(t, err)
	assert.True(t, ok)

	// the same name is free for another user
	free := validator.NewKnowledgeBaseValidator(f.session, f.provider.KnowledgeBaseStore(), types.KnowledgeBaseCreate{
		LLMModelID:       theirs.ID,
		EmbeddingModelID: theirs.ID,
		Name:             "docs",
	}, other.ID)
	ok, err = free.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	assert.True(t, ok)

	kb, err := free.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, other.ID, kb.UserID)
	assert.Equal(t, types.DEFAULT_PARSER, kb.Parser)
}

func TestDocumentAndChunkValidators(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	kb := f.kb(t, owner.ID, f.llm(t, owner.ID).ID, "docs")

	denied := validator.NewDocumentValidator(f.session, f.provider.DocumentStore(), types.DocumentCreate{
		KnowledgeBaseID: kb.ID,
		Name:            "a.pdf",
		Parser:          "unknown",
	}, other.ID)
	ok, err := denied.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, denied.Errors(), "knowledge_base_id")
	assert.Contains(t, denied.Errors(), "parser")

	v := validator.NewDocumentValidator(f.session, f.provider.DocumentStore(), types.DocumentCreate{
		KnowledgeBaseID: kb.ID,
		Name:            "a.pdf",
	}, owner.ID)
	ok, err = v.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	require.True(t, ok)
	doc, err := v.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DOCUMENT_STATUS_PENDING, doc.Status)
	assert.Equal(t, owner.ID, doc.UserID)

	chunk := validator.NewChunkValidator(f.session, f.provider.ChunkStore(), types.ChunkCreate{Content: "hello"}, other.ID, doc.ID)
	ok, err = chunk.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, chunk.Errors(), "document_id")

	chunk = validator.NewChunkValidator(f.session, f.provider.ChunkStore(), types.ChunkCreate{Content: "hello"}, owner.ID, doc.ID)
	ok, err = chunk.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	require.True(t, ok)
	c, err := chunk.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, c.DocumentID)
	assert.True(t, c.Status)
}

func TestAssistantValidator(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	llm := f.llm(t, owner.ID)
	mine := f.kb(t, owner.ID, llm.ID, "mine")
	theirs := f.kb(t, other.ID, f.llm(t, other.ID).ID, "theirs")

	v := validator.NewAssistantValidator(f.session, f.provider.AssistantStore(), types.AssistantCreate{
		Name:             "helper",
		LLMID:            llm.ID,
		KnowledgeBaseIDs: []string{mine.ID, theirs.ID, "missing"},
	}, owner.ID)
	ok, err := v.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotContains(t, v.Errors(), "llm_id")
	assert.NotContains(t, v.Errors(), "knowledge_base_ids[0]")
	assert.Contains(t, v.Errors(), "knowledge_base_ids[1]")
	assert.Contains(t, v.Errors(), "knowledge_base_ids[2]")

	v = validator.NewAssistantValidator(f.session, f.provider.AssistantStore(), types.AssistantCreate{
		Name:             "helper",
		LLMID:            llm.ID,
		KnowledgeBaseIDs: []string{mine.ID},
	}, owner.ID)
	ok, err = v.IsValid(ctx, validator.OpSave)
	require.NoError(t, err)
	require.True(t, ok)
	a, err := v.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StringList{mine.ID}, a.KnowledgeBaseIDs)
	assert.Equal(t, types.DefaultRetrievalSettings(), a.RetrievalSettings)
}

func TestFieldErrorsMessages(t *testing.T) {
	errs := validator.FieldErrors{}
	errs.Add("name", "b")
	errs.Add("email", "a")
	assert.Equal(t, []string{"email: a", "name: b"}, errs.Messages())
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mojtabakargaran/identity-service/internal/security/token"
)

// Errores de clasificación de tokens. El orden de chequeo es
// not-found > already-used > expired, y es observable en la API.
var (
	ErrTokenNotFound = errors.New("store: token not found")
	ErrTokenUsed     = errors.New("store: token already used")
	ErrTokenExpired  = errors.New("store: token expired")
)

// TokenStore maneja los tokens de un solo uso (verificación de email y
// reset de contraseña). En la base solo vive el digest sha256; el
// plaintext se devuelve una única vez al emitir.
type TokenStore struct{ DB DBOps }

func NewTokenStore(db DBOps) *TokenStore { return &TokenStore{DB: db} }

func tableFor(kind TokenKind) string {
	if kind == TokenPasswordReset {
		return "password_reset_token"
	}
	return "email_verification_token"
}

// IssueRequest describe la emisión de un token nuevo.
type IssueRequest struct {
	Kind      TokenKind
	UserID    uuid.UUID
	SentTo    string
	IP        string
	UserAgent string
	TTL       time.Duration
}

// Issue crea un token nuevo de 32 bytes aleatorios y devuelve el plaintext.
// Para password_reset invalida primero los tokens vigentes del usuario,
// dentro de la misma transacción, para que solo el último link funcione.
func (s *TokenStore) Issue(ctx context.Context, req IssueRequest) (plaintext string, err error) {
	plaintext, err = token.NewOpaque(32)
	if err != nil {
		return "", err
	}
	digest := token.Digest(plaintext)

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	table := tableFor(req.Kind)
	if req.Kind == TokenPasswordReset {
		// Marcar como usados en vez de borrar: el intento con un link
		// viejo debe responder "ya usado", no "no existe".
		_, err = tx.Exec(ctx, `
			UPDATE `+table+`
			   SET used_at = now()
			 WHERE user_id = $1 AND used_at IS NULL`, req.UserID)
		if err != nil {
			return "", err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO `+table+` (id, user_id, token_hash, sent_to, ip, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, now() + ($7 * interval '1 second'))`,
		uuid.New(), req.UserID, digest, req.SentTo, req.IP, req.UserAgent, int64(req.TTL.Seconds()),
	)
	if err != nil {
		return "", err
	}
	if err = tx.Commit(ctx); err != nil {
		return "", err
	}
	return plaintext, nil
}

// Peek valida un token sin consumirlo (GET del formulario de reset).
// Devuelve ErrTokenNotFound, ErrTokenUsed o ErrTokenExpired según el caso.
func (s *TokenStore) Peek(ctx context.Context, kind TokenKind, plaintext string) (*TokenInfo, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, user_id, sent_to, expires_at, used_at
		  FROM `+tableFor(kind)+`
		 WHERE token_hash = $1`, token.Digest(plaintext))
	info, err := scanTokenInfo(row)
	if err != nil {
		return nil, err
	}
	if err := classify(info, time.Now()); err != nil {
		return nil, err
	}
	return info, nil
}

// Consume marca el token como usado de forma atómica y devuelve su info.
// La condición used_at IS NULL en el UPDATE garantiza un solo consumidor
// aunque lleguen requests concurrentes con el mismo token.
func (s *TokenStore) Consume(ctx context.Context, kind TokenKind, plaintext string) (*TokenInfo, error) {
	digest := token.Digest(plaintext)
	table := tableFor(kind)

	row := s.DB.QueryRow(ctx, `
		UPDATE `+table+`
		   SET used_at = now()
		 WHERE token_hash = $1
		   AND used_at IS NULL
		   AND expires_at > now()
		 RETURNING id, user_id, sent_to, expires_at, used_at`, digest)
	info, err := scanTokenInfo(row)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, ErrTokenNotFound) {
		return nil, err
	}

	// El UPDATE no tocó filas: distinguir por qué, para que el caller
	// pueda responder not-found / usado / expirado.
	row = s.DB.QueryRow(ctx, `
		SELECT id, user_id, sent_to, expires_at, used_at
		  FROM `+table+`
		 WHERE token_hash = $1`, digest)
	info, err = scanTokenInfo(row)
	if err != nil {
		return nil, err
	}
	if err := classify(info, time.Now()); err != nil {
		return nil, err
	}
	// Carrera: otro request lo consumió entre el UPDATE y el SELECT.
	return nil, ErrTokenUsed
}

func scanTokenInfo(row pgx.Row) (*TokenInfo, error) {
	var info TokenInfo
	err := row.Scan(&info.ID, &info.UserID, &info.SentTo, &info.ExpiresAt, &info.UsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &info, nil
}

func classify(info *TokenInfo, now time.Time) error {
	if info.UsedAt != nil {
		return ErrTokenUsed
	}
	if !info.ExpiresAt.After(now) {
		return ErrTokenExpired
	}
	return nil
}

// DeleteExpired purga tokens vencidos hace más de gracePeriod. Lo corre el
// CLI de administración, no el servicio.
func (s *TokenStore) DeleteExpired(ctx context.Context, kind TokenKind, gracePeriod time.Duration) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
		DELETE FROM `+tableFor(kind)+`
		 WHERE expires_at < now() - ($1 * interval '1 second')`,
		int64(gracePeriod.Seconds()))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

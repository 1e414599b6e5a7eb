package validators

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "github.com/casahojaldre/chatbot-backend/pkg/errors"
)

// DecodeTelegramUpdate decodes a Bot API update. Unknown fields are
// tolerated because Telegram extends the update object between API
// versions.
func DecodeTelegramUpdate(r *http.Request, dest any) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid update payload")
	}
	return nil
}

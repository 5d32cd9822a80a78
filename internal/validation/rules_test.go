package validation

import (
	"strings"
	"testing"

	"picfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass1!", false},
		{"Exactly Min Length", "Abcde1!x", false},
		{"Exactly Max Length", "A" + strings.Repeat("b", 61) + "1!", false},
		{"Too Short", "Ab1!xyz", true},
		{"Too Long", "A" + strings.Repeat("b", 62) + "1!", true},
		{"No Upper", "securepass1!", true},
		{"No Lower", "SECUREPASS1!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
		{"Disallowed Character", "Secure Pass1!", true},
		{"Unicode Characters", "ÅngstromPass1!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPasswordWeak)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		want     error
	}{
		{"Valid", "test_user.123", nil},
		{"Too Short", "tu", ErrUsernameShort},
		{"Illegal Chars", "user@123", ErrUsernameFormat},
		{"Hyphen", "user-name", ErrUsernameFormat},
		{"Empty", "", ErrUsernameFormat},
		{"Reserved", "Admin", ErrUsernameReserved},
		{"User Allowed At Registration", "user", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

	assert.ErrorIs(t, ValidateUsernameUpdate("user"), ErrUsernameReserved)
	assert.ErrorIs(t, ValidateUsernameUpdate("ROOT"), ErrUsernameReserved)
	assert.NoError(t, ValidateUsernameUpdate("new_name"))
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	emailAt254 := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 185) + ".com"
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Exactly 254 Characters", emailAt254, false},
		{"Too Long", "x" + emailAt254, true},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"No Dot In Domain", "user@localhost", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Display Name", "Bob <bob@example.com>", true},
		{"Trailing Dot In Domain", "user@example.com.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Bob@example.com", NormalizeEmail("  Bob@EXAMPLE.com "))
	assert.Equal(t, "plain", NormalizeEmail("plain"))
}

func TestValidateCommentText(t *testing.T) {
	t.Parallel()

	text, err := ValidateCommentText("  nice shot  ")
	require.NoError(t, err)
	assert.Equal(t, "nice shot", text)

	_, err = ValidateCommentText(" \n\t ")
	assert.ErrorIs(t, err, ErrCommentEmpty)

	_, err = ValidateCommentText(strings.Repeat("я", MaxCommentLength))
	assert.NoError(t, err)

	_, err = ValidateCommentText(strings.Repeat("x", MaxCommentLength+1))
	assert.ErrorIs(t, err, ErrCommentTooLong)

	// Surrounding whitespace does not count towards the limit.
	text, err = ValidateCommentText("  " + strings.Repeat("x", MaxCommentLength) + "\n")
	require.NoError(t, err)
	assert.Len(t, text, MaxCommentLength)
}

func TestValidateCaption(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateCaption(""))
	assert.NoError(t, ValidateCaption(strings.Repeat("a", MaxCaptionLength)))
	assert.ErrorIs(t, ValidateCaption(strings.Repeat("a", MaxCaptionLength+1)), ErrCaptionTooLong)
}

func TestValidateLanguage(t *testing.T) {
	t.Parallel()
	for _, lang := range []string{"en", "ru", "uz"} {
		assert.NoError(t, ValidateLanguage(lang))
	}
	assert.Error(t, ValidateLanguage("de"))
	assert.Error(t, ValidateLanguage(""))
}

func TestStruct_FieldMessages(t *testing.T) {
	t.Parallel()

	type registerRequest struct {
		Username string `json:"username" validate:"required,username"`
		Email    string `json:"email" validate:"required,email_address"`
		Password string `json:"password" validate:"required,password"`
		Code     string `json:"code,omitempty" validate:"omitempty,len=6,numeric"`
	}

	err := Struct(&registerRequest{Username: "root", Email: "bad", Password: "weak", Code: "12"})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, ErrUsernameReserved.Error(), appErr.Fields["username"])
	assert.Equal(t, ErrEmailInvalid.Error(), appErr.Fields["email"])
	assert.Equal(t, ErrPasswordWeak.Error(), appErr.Fields["password"])
	assert.Contains(t, appErr.Fields["code"], "6")

	err = Struct(&registerRequest{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!"})
	assert.NoError(t, err)

	err = Struct(&registerRequest{})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "This field is required.", appErr.Fields["username"])
}

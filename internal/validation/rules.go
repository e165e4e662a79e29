package validation

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// Лимиты полей.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxTitleLength    = 200
	MaxDescLength     = 5000
	MaxNoteLength     = 5000
	MaxReasonLength   = 2000
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Email обязательный email.
var Email = []validation.Rule{validation.Required.Error("email обязателен"), is.EmailFormat.Error("некорректный формат email")}

// Password правило сложности пароля.
var Password = validation.By(ValidatePassword)

// Username имя пользователя: буквы, цифры и подчёркивание, не с цифры.
var Username = []validation.Rule{
	validation.Length(MinUsernameLength, MaxUsernameLength).Error("имя пользователя должно быть от 3 до 30 символов"),
	validation.Match(usernameRegex).Error("имя пользователя может содержать только буквы, цифры и подчеркивание и не может начинаться с цифры"),
}

// PositiveAmount сумма строго больше нуля и не более двух знаков после запятой.
var PositiveAmount = validation.By(func(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("некорректная сумма")
	}
	if !amount.IsPositive() {
		return errors.New("сумма должна быть больше нуля")
	}
	if !amount.Equal(amount.Round(2)) {
		return errors.New("сумма должна содержать не более двух знаков после запятой")
	}
	return nil
})

// NonNegativeAmount сумма не меньше нуля.
var NonNegativeAmount = validation.By(func(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("некорректная сумма")
	}
	if amount.IsNegative() {
		return errors.New("сумма не может быть отрицательной")
	}
	return nil
})

// NoteText текст заметки: обязателен, не длиннее 5000 символов.
var NoteText = []validation.Rule{
	validation.Required.Error("текст заметки обязателен"),
	validation.RuneLength(1, MaxNoteLength).Error("заметка должна быть не длиннее 5000 символов"),
}

// Title заголовок проекта или пакета.
var Title = []validation.Rule{
	validation.Required.Error("заголовок обязателен"),
	validation.RuneLength(3, MaxTitleLength).Error("заголовок должен быть от 3 до 200 символов"),
}

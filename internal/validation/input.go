package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength      = 3
	MaxUsernameLength      = 30
	MinDisplayNameLength   = 2
	MaxDisplayNameLength   = 100
	MaxBioLength           = 1000
	MaxLocationLength      = 100
	MaxCaptionLength       = 2000
	MinCommentLength       = 1
	MaxCommentLength       = 1000
	MaxNotesLength         = 1000
	MaxURLLength           = 2048
	MinServiceNameLength   = 2
	MaxServiceNameLength   = 200
	MaxCategoryLength      = 50
	MaxAccountNumberLength = 34
	MaxIdempotencyKeyLen   = 128
	MaxDescriptionLength   = 500
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	usernameRegex    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	displayNameRegex = regexp.MustCompile(`^[\p{L}0-9\s\-_.,!?()']+$`)
	// Кенийский номер M-Pesa: +2547XXXXXXXX, 2547XXXXXXXX или 07XXXXXXXX (а также серия 01).
	mpesaPhoneRegex = regexp.MustCompile(`^(\+?254|0)(7|1)\d{8}$`)
	cardNumberRegex = regexp.MustCompile(`^\d{12,19}$`)
	idemKeyRegex    = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}

	if err := ValidateLength("отображаемое имя", displayName, MinDisplayNameLength, MaxDisplayNameLength); err != nil {
		return err
	}

	if !displayNameRegex.MatchString(displayName) {
		return fmt.Errorf("отображаемое имя содержит недопустимые символы")
	}

	return nil
}

// ValidateOptional проверяет длину необязательного текстового поля.
func ValidateOptional(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

// ValidateImageURL проверяет ссылку на изображение: только http и https.
func ValidateImageURL(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("ссылка на изображение обязательна")
	}

	if err := ValidateLength("ссылка на изображение", link, 0, MaxURLLength); err != nil {
		return err
	}

	parsedURL, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("некорректный формат URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("ссылка должна начинаться с http:// или https://")
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("ссылка должна содержать доменное имя")
	}

	return nil
}

// ValidateCaption проверяет подпись к публикации.
func ValidateCaption(caption *string) error {
	return ValidateOptional("подпись", caption, MaxCaptionLength)
}

// ValidateComment проверяет текст комментария.
func ValidateComment(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("комментарий не может быть пустым")
	}
	return ValidateLength("комментарий", text, MinCommentLength, MaxCommentLength)
}

// ValidatePaymentAccount проверяет реквизиты способа оплаты в зависимости от его типа.
func ValidatePaymentAccount(methodType, accountNumber string) error {
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		return fmt.Errorf("номер счёта обязателен")
	}

	switch methodType {
	case "mpesa":
		if !mpesaPhoneRegex.MatchString(strings.ReplaceAll(accountNumber, " ", "")) {
			return fmt.Errorf("номер M-Pesa должен быть в формате +2547XXXXXXXX")
		}
	case "card":
		if !cardNumberRegex.MatchString(strings.ReplaceAll(accountNumber, " ", "")) {
			return fmt.Errorf("номер карты должен содержать от 12 до 19 цифр")
		}
	case "bank_account":
		return ValidateLength("номер счёта", accountNumber, 4, MaxAccountNumberLength)
	default:
		return fmt.Errorf("неизвестный тип способа оплаты: %s", methodType)
	}
	return nil
}

// ValidateIdempotencyKey проверяет ключ идемпотентности из заголовка запроса.
func ValidateIdempotencyKey(key string) error {
	if len(key) > MaxIdempotencyKeyLen {
		return fmt.Errorf("ключ идемпотентности не может быть длиннее %d символов", MaxIdempotencyKeyLen)
	}
	if !idemKeyRegex.MatchString(key) {
		return fmt.Errorf("ключ идемпотентности содержит недопустимые символы")
	}
	return nil
}

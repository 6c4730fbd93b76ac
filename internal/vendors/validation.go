package vendors

import "strings"

func validateCreate(input CreateInput) error {
	fields := make(map[string]string)
	checkProfile(input.Name, input.Email, fields)
	if input.Password != "" && len(input.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateUpdate(input UpdateInput) error {
	fields := make(map[string]string)
	checkProfile(input.Name, input.Email, fields)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkProfile(name, email string, fields map[string]string) {
	if strings.TrimSpace(name) == "" {
		fields["name"] = "name is required"
	}
	email = strings.TrimSpace(email)
	if email == "" {
		fields["email"] = "email is required"
	} else if !strings.Contains(email, "@") {
		fields["email"] = "email is invalid"
	}
}

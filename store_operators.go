package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = &apiError{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "Invalid email or password"}

func (a *App) storeAuthenticateOperator(ctx context.Context, email, password string) (*Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var op Operator
	var passwordHash string
	err := a.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, role, is_active,
		       to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
		       to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM operators
		WHERE LOWER(email) = $1
	`, email).Scan(&op.ID, &op.Email, &op.Name, &passwordHash, &op.Role, &op.IsActive, &op.CreatedAt, &op.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !op.IsActive {
		return nil, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	return &op, nil
}

func (a *App) storeListOperators(ctx context.Context) ([]Operator, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, email, name, role, is_active,
		       to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
		       to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM operators
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	operators := []Operator{}
	for rows.Next() {
		var op Operator
		if err := rows.Scan(&op.ID, &op.Email, &op.Name, &op.Role, &op.IsActive, &op.CreatedAt, &op.UpdatedAt); err != nil {
			return nil, err
		}
		operators = append(operators, op)
	}
	return operators, rows.Err()
}

func (a *App) storeCreateOperator(ctx context.Context, email, name, password, role string) (*Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_email", Message: "A valid email is required"}
	}
	if len(password) < 10 {
		return nil, &apiError{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: "Password must be at least 10 characters"}
	}
	if !containsString(operatorRoles, role) {
		return nil, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_role", Message: "Role must be admin or editor"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var op Operator
	err = a.db.QueryRowContext(ctx, `
		INSERT INTO operators (email, name, password_hash, role, is_active)
		VALUES ($1, NULLIF($2, ''), $3, $4, TRUE)
		RETURNING id, email, name, role, is_active,
		          to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
		          to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
	`, email, strings.TrimSpace(name), string(hash), role).
		Scan(&op.ID, &op.Email, &op.Name, &op.Role, &op.IsActive, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, &apiError{Status: http.StatusConflict, Code: "operator_exists", Message: "An operator with this email already exists"}
		}
		return nil, err
	}
	return &op, nil
}

func (a *App) storeToggleOperator(ctx context.Context, id int) (*Operator, error) {
	var op Operator
	err := a.db.QueryRowContext(ctx, `
		UPDATE operators
		SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, name, role, is_active,
		          to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
		          to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
	`, id).Scan(&op.ID, &op.Email, &op.Name, &op.Role, &op.IsActive, &op.CreatedAt, &op.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "Operator not found"}
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *App) adminOperatorsHandler(c *gin.Context) {
	operators, err := a.storeListOperators(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, operators)
}

func (a *App) adminCreateOperatorHandler(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Name     string `json:"name"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	operator, err := a.storeCreateOperator(c.Request.Context(), body.Email, body.Name, body.Password, body.Role)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, operator)
}

func (a *App) adminToggleOperatorHandler(c *gin.Context) {
	session, err := getOperatorSession(c)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Operator session required"})
		return
	}

	operator, err := a.storeToggleOperator(c.Request.Context(), parseIDParam(c))
	if err != nil {
		writeAPIError(c, err)
		return
	}
	if operator.Email == session.Email && !operator.IsActive {
		// Re-enable rather than let an admin lock themselves out.
		operator, err = a.storeToggleOperator(c.Request.Context(), operator.ID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		writeAPIError(c, &apiError{Status: http.StatusConflict, Code: "self_disable", Message: "You cannot disable your own account"})
		return
	}
	c.JSON(http.StatusOK, operator)
}

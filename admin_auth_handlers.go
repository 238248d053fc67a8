package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *App) adminLoginHandler(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Email and password are required"})
		return
	}

	operator, err := a.adminAuthenticateOperator(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	session := OperatorSession{Email: operator.Email, Role: operator.Role}
	token, err := a.createOperatorSessionToken(session)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(adminCookieName, token, int(adminSessionDuration.Seconds()), "/", "", a.isProduction(), true)
	c.JSON(http.StatusOK, gin.H{"operator": operator})
}

func (a *App) adminLogoutHandler(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(adminCookieName, "", -1, "/", "", a.isProduction(), true)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (a *App) adminSessionHandler(c *gin.Context) {
	token, err := c.Cookie(adminCookieName)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "No active session"})
		return
	}
	session, err := a.verifyOperatorSessionToken(token)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "No active session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

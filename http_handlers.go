package main

// this file contains implementation of HTTP handlers - REST API

import (
	"errors"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

var (
	jwtSecret []byte
	service   VoteService
)

func NewHTTPRouter(_service VoteService, secret string) *echo.Echo {
	service = _service
	jwtSecret = []byte(secret)

	r := echo.New()
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))

	router := r.Group("/api")
	router.GET("/health", healthCheckHandler)
	router.POST("/login", loginHandler)

	pollGroup := router.Group("/poll")
	pollGroup.Use(middleware.JWT(jwtSecret))
	{
		pollGroup.GET("/:id", pollByIDHandler)
		pollGroup.GET("/:id/results", pollResultsHandler)
	}

	return r
}

func healthCheckHandler(c echo.Context) error {
	return c.String(http.StatusOK, "I am up and running!")
}

func loginHandler(c echo.Context) error {
	userID := c.FormValue("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Missing user_id",
		})
	}

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = userID
	claims["exp"] = time.Now().Add(time.Hour * 72).Unix()
	t, err := token.SignedString(jwtSecret)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token": t,
	})
}

func pollByIDHandler(c echo.Context) error {
	poll, err := service.GetPoll(c.Param("id"))
	if errors.Is(err, ErrPollNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "Poll not found",
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, poll)
}

func pollResultsHandler(c echo.Context) error {
	results, err := service.Results(c.Param("id"))
	if errors.Is(err, ErrPollNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "Poll not found",
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}

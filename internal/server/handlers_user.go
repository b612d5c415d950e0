package server

import (
	"bytes"
	"io"
	"log"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/h2non/bimg"
	"github.com/labstack/echo/v4"
)

func (s *Server) HandlerGetMe(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)
	user.Password = ""

	resp["user"] = user

	return c.JSON(http.StatusOK, resp)
}

type UpdateMeBody struct {
	DisplayName string `json:"display_name"`
}

func (s *Server) HandlerUpdateMe(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	body := new(UpdateMeBody)
	if err := c.Bind(body); err != nil || body.DisplayName == "" {
		resp["name"] = "display_name"
		resp["message"] = "An error occured when changing your informations."
		return c.JSON(http.StatusBadRequest, resp)
	}

	if err := s.db.ChangeDisplayName(user.ID, body.DisplayName); err != nil {
		log.Println(err)
		resp["name"] = "display_name"
		resp["message"] = "An error occured when changing your informations."
		return c.JSON(http.StatusBadRequest, resp)
	}

	resp["message"] = "success"

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlerChangeAvatar(c echo.Context) error {
	resp := make(map[string]any)
	user := currentUser(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		log.Println(err)
		return c.String(http.StatusBadRequest, "Failed to get file")
	}

	avatarURL, err := s.uploadImageAsJPEG("avatars", user.ID, file.Size, func() (io.ReadCloser, error) {
		return file.Open()
	})
	if err != nil {
		resp["message"] = err.Error()
		return c.JSON(http.StatusBadRequest, resp)
	}

	avatar, err := s.db.UpdateAvatar(user.ID, avatarURL)
	if err != nil {
		log.Println(err)
		return c.String(http.StatusInternalServerError, "Failed to update link")
	}

	resp["avatar_url"] = avatar

	return c.JSON(http.StatusOK, resp)
}

// uploadImageAsJPEG converts the upload to JPEG before storing it so the
// bucket never serves oversized or exotic formats.
func (s *Server) uploadImageAsJPEG(bucket, owner string, size int64, open func() (io.ReadCloser, error)) (string, error) {
	if size > maxUploadBytes {
		return "", echo.NewHTTPError(http.StatusBadRequest, "File size exceeds 8MB limit")
	}

	src, err := open()
	if err != nil {
		log.Println(err)
		return "", echo.NewHTTPError(http.StatusBadRequest, "Failed to open file")
	}
	defer src.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Failed to read image")
	}

	converted, err := bimg.NewImage(buf.Bytes()).Convert(bimg.JPEG)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Failed to convert image to jpg")
	}

	key := owner + "-" + uuid.NewString() + ".jpg"
	_, err = s.s3.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(converted),
	})
	if err != nil {
		log.Println(err)
		return "", echo.NewHTTPError(http.StatusBadRequest, "Failed to upload image")
	}

	return publicURL(bucket, key), nil
}

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coe-console/internal/directory"
)

func (s *Server) healthz(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.entry(c).WithError(err).Error("list users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch user data", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) getDepartments(c *gin.Context) {
	depts, err := s.store.ListDepartments(c.Request.Context())
	if err != nil {
		s.entry(c).WithError(err).Error("list departments")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch department data", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, depts)
}

func (s *Server) updateUser(c *gin.Context) {
	id := c.Param("id")

	var u directory.User
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data provided: " + err.Error()})
		return
	}

	err := s.store.UpdateUser(c.Request.Context(), id, u)
	switch {
	case errors.Is(err, directory.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists for another user."})
		return
	case errors.Is(err, directory.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No user found with the given ID"})
		return
	case err != nil:
		s.entry(c).WithError(err).WithField("user", id).Error("update user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user: " + err.Error()})
		return
	}

	s.entry(c).WithField("user", id).Info("user updated")
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

func (s *Server) deleteUser(c *gin.Context) {
	id := c.Param("id")

	err := s.store.DeleteUser(c.Request.Context(), id)
	switch {
	case errors.Is(err, directory.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No user found with the given ID"})
		return
	case err != nil:
		s.entry(c).WithError(err).WithField("user", id).Error("delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute delete: " + err.Error()})
		return
	}

	s.entry(c).WithField("user", id).Info("user deleted")
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (s *Server) uploadUsers(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded", "error": err.Error()})
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid file format. Please upload a CSV file."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to open uploaded file", "error": err.Error()})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	deptIDs, err := s.store.DepartmentIDs(ctx)
	if err != nil {
		s.entry(c).WithError(err).Error("load departments")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load departments", "error": err.Error()})
		return
	}

	rows, problems, err := directory.ParseUpload(file, deptIDs)
	switch {
	case errors.Is(err, directory.ErrEmptyUpload):
		c.JSON(http.StatusBadRequest, gin.H{"message": "CSV file is empty or has only a header row."})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to parse CSV file", "error": err.Error()})
		return
	}

	dbProblems, err := s.store.UpsertUsers(ctx, rows)
	if err != nil {
		s.entry(c).WithError(err).Error("upsert users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to commit database transaction", "error": err.Error()})
		return
	}
	problems = append(problems, dbProblems...)

	s.entry(c).WithField("rows", len(rows)).WithField("skipped", len(problems)).Info("users uploaded")
	if len(problems) > 0 {
		c.JSON(http.StatusAccepted, directory.UploadResult{Message: "Users uploaded with some errors.", Errors: problems})
		return
	}
	c.JSON(http.StatusOK, directory.UploadResult{Message: "Users uploaded successfully."})
}

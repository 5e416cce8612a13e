// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reference holds the compact views of users and projects that other
read models embed instead of raw foreign keys.

A task shows its assignee's name and avatar, a log entry shows the project
color, and so on. Keeping these shapes in one place means every endpoint
renders a user the same way.
*/
package reference

import "github.com/taibuivan/sprinto/pkg/pointer"

// # User References

// User is the public face of an account inside another resource.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar"`
	Color  string `json:"color"`
	Role   string `json:"role,omitempty"`
}

// # Project References

// Project is the compact view of a project inside another resource.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// # SQL Fragments

// UserColumns lists the columns read by [User.Targets] for a users table
// aliased as alias.
func UserColumns(alias string) string {
	return alias + ".id, " + alias + ".name, " + alias + ".email, " + alias + ".avatar, " + alias + ".color, " + alias + ".role"
}

// Targets returns the scan destinations matching [UserColumns].
func (user *User) Targets() []any {
	return []any{&user.ID, &user.Name, &user.Email, &user.Avatar, &user.Color, &user.Role}
}

// OptionalUser scans a LEFT JOINed user whose columns may all be NULL.
type OptionalUser struct {
	ID, Name, Email, Avatar, Color, Role *string
}

// Targets returns the scan destinations matching [UserColumns].
func (optional *OptionalUser) Targets() []any {
	return []any{&optional.ID, &optional.Name, &optional.Email, &optional.Avatar, &optional.Color, &optional.Role}
}

// User returns the joined user, or nil when the join matched nothing.
func (optional *OptionalUser) User() *User {
	if optional.ID == nil {
		return nil
	}
	return &User{
		ID:     *optional.ID,
		Name:   pointer.Val(optional.Name),
		Email:  pointer.Val(optional.Email),
		Avatar: pointer.Val(optional.Avatar),
		Color:  pointer.Val(optional.Color),
		Role:   pointer.Val(optional.Role),
	}
}

// VisibleProjectIDs returns a subquery selecting the projects a user manages
// or belongs to. placeholder is the positional parameter holding the user ID.
func VisibleProjectIDs(placeholder string) string {
	return "SELECT id FROM projects WHERE manager_id = " + placeholder +
		" UNION SELECT project_id FROM project_members WHERE user_id = " + placeholder
}

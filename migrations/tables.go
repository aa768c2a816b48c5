package migrations

import (
	"fmt"

	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/database"
)

// createUsersTable creates the users table
func createUsersTable() Migration {
	return Migration{
		Name:        "create_users_table",
		Description: "Creates the users table",
		TableName:   constants.TableUsers,
		Statements: func(d database.Dialect) []string {
			ts := d.TimestampType()
			stmts := []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id %s,
				name VARCHAR(%d) NOT NULL,
				email VARCHAR(%d) NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				position VARCHAR(32) NOT NULL DEFAULT '%s',
				created_at %s NOT NULL,
				updated_at %s NOT NULL
			)`, constants.TableUsers, d.AutoIncrementPK(), constants.MaxNameLength,
				constants.MaxEmailLength, constants.PositionMember, ts, ts)}

			// MySQL's default collation already compares case-insensitively.
			if d.Name() == constants.DriverMySQL {
				return append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX idx_users_email ON %s (email)", constants.TableUsers))
			}
			return append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX idx_users_email ON %s (LOWER(email))", constants.TableUsers))
		},
	}
}

// createPasswordResetTokensTable creates the password_reset_tokens table
func createPasswordResetTokensTable() Migration {
	return Migration{
		Name:        "create_password_reset_tokens_table",
		Description: "Creates the password_reset_tokens table",
		TableName:   constants.TablePasswordResetTokens,
		Statements: func(d database.Dialect) []string {
			ts := d.TimestampType()
			return []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id %s,
					user_id BIGINT NOT NULL,
					token_hash CHAR(64) NOT NULL,
					expires_at %s NOT NULL,
					used BOOLEAN NOT NULL DEFAULT FALSE,
					last_sent_at %s NOT NULL,
					created_at %s NOT NULL,
					CONSTRAINT fk_reset_tokens_user FOREIGN KEY (user_id) REFERENCES %s(id) ON DELETE CASCADE
				)`, constants.TablePasswordResetTokens, d.AutoIncrementPK(), ts, ts, ts, constants.TableUsers),
				fmt.Sprintf("CREATE INDEX idx_reset_tokens_user_created ON %s (user_id, created_at)", constants.TablePasswordResetTokens),
				fmt.Sprintf("CREATE INDEX idx_reset_tokens_expires_at ON %s (expires_at)", constants.TablePasswordResetTokens),
			}
		},
	}
}

// createProjectsTable creates the projects table
func createProjectsTable() Migration {
	return Migration{
		Name:        "create_projects_table",
		Description: "Creates the projects table",
		TableName:   constants.TableProjects,
		Statements: func(d database.Dialect) []string {
			ts := d.TimestampType()
			return []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id %s,
					owner_id BIGINT NOT NULL,
					name VARCHAR(200) NOT NULL,
					description TEXT NOT NULL,
					created_at %s NOT NULL,
					updated_at %s NOT NULL,
					CONSTRAINT fk_projects_owner FOREIGN KEY (owner_id) REFERENCES %s(id) ON DELETE CASCADE
				)`, constants.TableProjects, d.AutoIncrementPK(), ts, ts, constants.TableUsers),
				fmt.Sprintf("CREATE INDEX idx_projects_owner ON %s (owner_id)", constants.TableProjects),
			}
		},
	}
}

// createTasksTable creates the tasks table
func createTasksTable() Migration {
	return Migration{
		Name:        "create_tasks_table",
		Description: "Creates the tasks table",
		TableName:   constants.TableTasks,
		Statements: func(d database.Dialect) []string {
			ts := d.TimestampType()
			return []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id %s,
					project_id BIGINT NOT NULL,
					title VARCHAR(200) NOT NULL,
					description TEXT NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT '%s',
					due_date %s NULL,
					created_at %s NOT NULL,
					updated_at %s NOT NULL,
					CONSTRAINT fk_tasks_project FOREIGN KEY (project_id) REFERENCES %s(id) ON DELETE CASCADE
				)`, constants.TableTasks, d.AutoIncrementPK(), constants.TaskStatusTodo, ts, ts, ts, constants.TableProjects),
				fmt.Sprintf("CREATE INDEX idx_tasks_project ON %s (project_id)", constants.TableTasks),
			}
		},
	}
}

// createContactMessagesTable creates the contact_messages table
func createContactMessagesTable() Migration {
	return Migration{
		Name:        "create_contact_messages_table",
		Description: "Creates the contact_messages table",
		TableName:   constants.TableContactMessages,
		Statements: func(d database.Dialect) []string {
			return []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id %s,
					reference VARCHAR(36) NOT NULL,
					name VARCHAR(%d) NOT NULL,
					email VARCHAR(%d) NOT NULL,
					message TEXT NOT NULL,
					client_ip VARCHAR(64) NOT NULL,
					user_id BIGINT NULL,
					created_at %s NOT NULL,
					CONSTRAINT idx_contact_reference UNIQUE (reference)
				)`, constants.TableContactMessages, d.AutoIncrementPK(), constants.MaxNameLength,
					constants.MaxEmailLength, d.TimestampType()),
			}
		},
	}
}

package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsv2xray "github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
	"account-gateway/internal/domain"
)

type Client struct {
	db        *awsv2dynamodb.Client
	tableName string
}

func NewClient(ctx context.Context, region, tableName string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	awsv2xray.AWSV2Instrumentor(&cfg.APIOptions)
	client := awsv2dynamodb.NewFromConfig(cfg)
	return &Client{db: client, tableName: tableName}, nil
}

func rolePK(roleID string) string   { return "ROLE#" + roleID }
func groupPK(groupID string) string { return "ADMGRP#" + groupID }
func userPK(userID string) string   { return "USER#" + userID }
func tokenPK(token string) string   { return "TOKEN#" + token }
func metaSK() string                { return "META" }
func profileSK() string             { return "PROFILE" }

func isConditionalCheckFailure(err error) bool {
	var condErr *awsv2types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

type RoleRepository struct{ client *Client }

type AdminGroupRepository struct{ client *Client }

type UserRepository struct{ client *Client }

type AuthorizationRepository struct{ client *Client }

func NewRoleRepository(client *Client) *RoleRepository {
	return &RoleRepository{client: client}
}

func NewAdminGroupRepository(client *Client) *AdminGroupRepository {
	return &AdminGroupRepository{client: client}
}

func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

func NewAuthorizationRepository(client *Client) *AuthorizationRepository {
	return &AuthorizationRepository{client: client}
}

func (r *RoleRepository) Create(ctx context.Context, role domain.Role) error {
	item := map[string]any{
		"PK":          rolePK(role.ID),
		"SK":          metaSK(),
		"EntityType":  "ROLE",
		"ID":          role.ID,
		"Permissions": role.Permissions,
		"CreatedAt":   role.CreatedAt.Format(time.RFC3339),
		"UpdatedAt":   role.UpdatedAt.Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	return xray.Capture(ctx, "DynamoDB.PutRole", func(ctx context.Context) error {
		_, err = r.client.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(r.client.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrDuplicate
		}
		return err
	})
}

func (r *RoleRepository) ListAll(ctx context.Context) ([]domain.Role, error) {
	items, err := r.client.scanByEntityType(ctx, "DynamoDB.ScanRoles", "ROLE")
	if err != nil {
		return nil, err
	}
	roles := make([]domain.Role, 0, len(items))
	for _, item := range items {
		raw := struct {
			ID          string   `dynamodbav:"ID"`
			Permissions []string `dynamodbav:"Permissions"`
			CreatedAt   string   `dynamodbav:"CreatedAt"`
			UpdatedAt   string   `dynamodbav:"UpdatedAt"`
		}{}
		if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
			return nil, err
		}
		createdAt, _ := time.Parse(time.RFC3339, raw.CreatedAt)
		updatedAt, _ := time.Parse(time.RFC3339, raw.UpdatedAt)
		if raw.Permissions == nil {
			raw.Permissions = []string{}
		}
		roles = append(roles, domain.Role{ID: raw.ID, Permissions: raw.Permissions, CreatedAt: createdAt, UpdatedAt: updatedAt})
	}
	return roles, nil
}

// Delete removes the role and re-reads the key afterwards: true only when
// the record existed and is verifiably gone.
func (r *RoleRepository) Delete(ctx context.Context, roleID string) (bool, error) {
	return r.client.deleteAndVerify(ctx, "DynamoDB.DeleteRole", rolePK(roleID), metaSK())
}

// SetPermissions performs a single conditional set-field update. The
// returned count is 1 when the record was found and modified and 0 when no
// record matched the identifier; nothing is ever created here.
func (r *RoleRepository) SetPermissions(ctx context.Context, roleID string, permissions []string, updatedAt time.Time) (int64, error) {
	return r.client.setPermissions(ctx, "DynamoDB.UpdateRolePermissions", rolePK(roleID), metaSK(), permissions, updatedAt)
}

func (r *AdminGroupRepository) Create(ctx context.Context, group domain.AdminPermissionGroup) error {
	// The external group id is the partition key, so the conditional put
	// doubles as the uniqueness check across all groups.
	item := map[string]any{
		"PK":          groupPK(group.GroupID),
		"SK":          metaSK(),
		"EntityType":  "ADMIN_GROUP",
		"ID":          group.ID,
		"GroupID":     group.GroupID,
		"GroupName":   group.Name,
		"Permissions": group.Permissions,
		"CreatedAt":   group.CreatedAt.Format(time.RFC3339),
		"UpdatedAt":   group.UpdatedAt.Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	return xray.Capture(ctx, "DynamoDB.PutAdminGroup", func(ctx context.Context) error {
		_, err = r.client.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(r.client.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrDuplicate
		}
		return err
	})
}

func (r *AdminGroupRepository) ListAll(ctx context.Context) ([]domain.AdminPermissionGroup, error) {
	items, err := r.client.scanByEntityType(ctx, "DynamoDB.ScanAdminGroups", "ADMIN_GROUP")
	if err != nil {
		return nil, err
	}
	groups := make([]domain.AdminPermissionGroup, 0, len(items))
	for _, item := range items {
		raw := struct {
			ID          string   `dynamodbav:"ID"`
			GroupID     string   `dynamodbav:"GroupID"`
			GroupName   string   `dynamodbav:"GroupName"`
			Permissions []string `dynamodbav:"Permissions"`
			CreatedAt   string   `dynamodbav:"CreatedAt"`
			UpdatedAt   string   `dynamodbav:"UpdatedAt"`
		}{}
		if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
			return nil, err
		}
		createdAt, _ := time.Parse(time.RFC3339, raw.CreatedAt)
		updatedAt, _ := time.Parse(time.RFC3339, raw.UpdatedAt)
		if raw.Permissions == nil {
			raw.Permissions = []string{}
		}
		groups = append(groups, domain.AdminPermissionGroup{
			ID:          raw.ID,
			GroupID:     raw.GroupID,
			Name:        raw.GroupName,
			Permissions: raw.Permissions,
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
		})
	}
	return groups, nil
}

func (r *AdminGroupRepository) Delete(ctx context.Context, groupID string) (bool, error) {
	return r.client.deleteAndVerify(ctx, "DynamoDB.DeleteAdminGroup", groupPK(groupID), metaSK())
}

func (r *AdminGroupRepository) SetPermissions(ctx context.Context, groupID string, permissions []string, updatedAt time.Time) (int64, error) {
	return r.client.setPermissions(ctx, "DynamoDB.UpdateAdminGroupPermissions", groupPK(groupID), metaSK(), permissions, updatedAt)
}

type userItem struct {
	ID          string        `dynamodbav:"ID"`
	Forename    string        `dynamodbav:"Forename"`
	Surname     string        `dynamodbav:"Surname"`
	DisplayName string        `dynamodbav:"DisplayName"`
	Email       string        `dynamodbav:"Email"`
	Locale      string        `dynamodbav:"Locale"`
	Roles       []string      `dynamodbav:"Roles"`
	OneLogin    *oneLoginItem `dynamodbav:"OneLogin,omitempty"`
	CreatedAt   string        `dynamodbav:"CreatedAt"`
	UpdatedAt   string        `dynamodbav:"UpdatedAt"`
	UnlinkedBy  string        `dynamodbav:"UnlinkedBy,omitempty"`
	UnlinkedAt  string        `dynamodbav:"UnlinkedAt,omitempty"`
}

type oneLoginItem struct {
	UserID   string `dynamodbav:"UserID"`
	LinkedAt string `dynamodbav:"LinkedAt"`
}

func (it userItem) toDomain() domain.User {
	createdAt, _ := time.Parse(time.RFC3339, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, it.UpdatedAt)
	user := domain.User{
		ID:          it.ID,
		Forename:    it.Forename,
		Surname:     it.Surname,
		DisplayName: it.DisplayName,
		Email:       it.Email,
		Locale:      it.Locale,
		Roles:       it.Roles,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		UnlinkedBy:  it.UnlinkedBy,
	}
	if user.Roles == nil {
		user.Roles = []string{}
	}
	if it.OneLogin != nil {
		linkedAt, _ := time.Parse(time.RFC3339, it.OneLogin.LinkedAt)
		user.OneLogin = &domain.OneLoginData{UserID: it.OneLogin.UserID, LinkedAt: linkedAt}
	}
	if it.UnlinkedAt != "" {
		unlinkedAt, _ := time.Parse(time.RFC3339, it.UnlinkedAt)
		user.UnlinkedAt = &unlinkedAt
	}
	return user
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (domain.User, error) {
	var out *awsv2dynamodb.GetItemOutput
	err := xray.Capture(ctx, "DynamoDB.GetUser", func(ctx context.Context) error {
		var e error
		out, e = r.client.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: userPK(userID)},
				"SK": &awsv2types.AttributeValueMemberS{Value: profileSK()},
			},
		})
		return e
	})
	if err != nil {
		return domain.User{}, err
	}
	if out.Item == nil {
		return domain.User{}, domain.ErrNotFound
	}
	var raw userItem
	if err := attributevalue.UnmarshalMap(out.Item, &raw); err != nil {
		return domain.User{}, err
	}
	return raw.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var out *awsv2dynamodb.ScanOutput
	err := xray.Capture(ctx, "DynamoDB.ScanUserByEmail", func(ctx context.Context) error {
		var e error
		out, e = r.client.db.Scan(ctx, &awsv2dynamodb.ScanInput{
			TableName:        aws.String(r.client.tableName),
			FilterExpression: aws.String("EntityType = :t AND Email = :e"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":t": &awsv2types.AttributeValueMemberS{Value: "USER"},
				":e": &awsv2types.AttributeValueMemberS{Value: email},
			},
		})
		return e
	})
	if err != nil {
		return domain.User{}, err
	}
	if len(out.Items) == 0 {
		return domain.User{}, domain.ErrNotFound
	}
	var raw userItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &raw); err != nil {
		return domain.User{}, err
	}
	return raw.toDomain(), nil
}

func (r *UserRepository) SetRoles(ctx context.Context, userID string, roleIDs []string, updatedAt time.Time) (int64, error) {
	rolesAV, err := attributevalue.Marshal(roleIDs)
	if err != nil {
		return 0, err
	}
	var count int64
	err = xray.Capture(ctx, "DynamoDB.UpdateUserRoles", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: userPK(userID)},
				"SK": &awsv2types.AttributeValueMemberS{Value: profileSK()},
			},
			UpdateExpression: aws.String("SET #r = :r, UpdatedAt = :u"),
			ExpressionAttributeNames: map[string]string{
				"#r": "Roles",
			},
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":r": rolesAV,
				":u": &awsv2types.AttributeValueMemberS{Value: updatedAt.Format(time.RFC3339)},
			},
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			// No record matched the user id.
			return nil
		}
		if err != nil {
			return err
		}
		count = 1
		return nil
	})
	return count, err
}

func (r *UserRepository) UnsetOneLogin(ctx context.Context, userID, actor string, unlinkedAt time.Time) (int64, error) {
	var count int64
	err := xray.Capture(ctx, "DynamoDB.UnsetUserOneLogin", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: userPK(userID)},
				"SK": &awsv2types.AttributeValueMemberS{Value: profileSK()},
			},
			UpdateExpression: aws.String("REMOVE OneLogin SET UnlinkedBy = :b, UnlinkedAt = :t, UpdatedAt = :u"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":b": &awsv2types.AttributeValueMemberS{Value: actor},
				":t": &awsv2types.AttributeValueMemberS{Value: unlinkedAt.Format(time.RFC3339)},
				":u": &awsv2types.AttributeValueMemberS{Value: unlinkedAt.Format(time.RFC3339)},
			},
			ConditionExpression: aws.String("attribute_exists(PK) AND attribute_exists(OneLogin)"),
		})
		if isConditionalCheckFailure(err) {
			return nil
		}
		if err != nil {
			return err
		}
		count = 1
		return nil
	})
	return count, err
}

func (r *AuthorizationRepository) GetByToken(ctx context.Context, token string) (domain.AuthorizationRecord, error) {
	var out *awsv2dynamodb.GetItemOutput
	err := xray.Capture(ctx, "DynamoDB.GetAuthorization", func(ctx context.Context) error {
		var e error
		out, e = r.client.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: tokenPK(token)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
		})
		return e
	})
	if err != nil {
		return domain.AuthorizationRecord{}, err
	}
	if out.Item == nil {
		return domain.AuthorizationRecord{}, domain.ErrNotFound
	}
	raw := struct {
		Token            string            `dynamodbav:"Token"`
		Expires          int64             `dynamodbav:"Expires"`
		RequestedScope   string            `dynamodbav:"RequestedScope"`
		Permissions      map[string]bool   `dynamodbav:"Permissions"`
		TokenPermissions map[string]string `dynamodbav:"TokenPermissions"`
		Revoked          bool              `dynamodbav:"Revoked"`
		UserID           string            `dynamodbav:"UserID"`
		UserEmail        string            `dynamodbav:"UserEmail"`
	}{}
	if err := attributevalue.UnmarshalMap(out.Item, &raw); err != nil {
		return domain.AuthorizationRecord{}, err
	}
	return domain.AuthorizationRecord{
		Token:            raw.Token,
		Expires:          raw.Expires,
		RequestedScope:   raw.RequestedScope,
		Permissions:      raw.Permissions,
		TokenPermissions: raw.TokenPermissions,
		Revoked:          raw.Revoked,
		UserID:           raw.UserID,
		UserEmail:        raw.UserEmail,
	}, nil
}

func (c *Client) scanByEntityType(ctx context.Context, segment, entityType string) ([]map[string]awsv2types.AttributeValue, error) {
	var items []map[string]awsv2types.AttributeValue
	err := xray.Capture(ctx, segment, func(ctx context.Context) error {
		var startKey map[string]awsv2types.AttributeValue
		for {
			out, err := c.db.Scan(ctx, &awsv2dynamodb.ScanInput{
				TableName:        aws.String(c.tableName),
				FilterExpression: aws.String("EntityType = :t"),
				ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
					":t": &awsv2types.AttributeValueMemberS{Value: entityType},
				},
				ExclusiveStartKey: startKey,
			})
			if err != nil {
				return err
			}
			items = append(items, out.Items...)
			if out.LastEvaluatedKey == nil {
				return nil
			}
			startKey = out.LastEvaluatedKey
		}
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) setPermissions(ctx context.Context, segment, pk, sk string, permissions []string, updatedAt time.Time) (int64, error) {
	permissionsAV, err := attributevalue.Marshal(permissions)
	if err != nil {
		return 0, err
	}
	var count int64
	err = xray.Capture(ctx, segment, func(ctx context.Context) error {
		_, err := c.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(c.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: pk},
				"SK": &awsv2types.AttributeValueMemberS{Value: sk},
			},
			UpdateExpression: aws.String("SET Permissions = :p, UpdatedAt = :u"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":p": permissionsAV,
				":u": &awsv2types.AttributeValueMemberS{Value: updatedAt.Format(time.RFC3339)},
			},
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			return nil
		}
		if err != nil {
			return err
		}
		count = 1
		return nil
	})
	return count, err
}

func (c *Client) deleteAndVerify(ctx context.Context, segment, pk, sk string) (bool, error) {
	key := map[string]awsv2types.AttributeValue{
		"PK": &awsv2types.AttributeValueMemberS{Value: pk},
		"SK": &awsv2types.AttributeValueMemberS{Value: sk},
	}
	var removed bool
	err := xray.Capture(ctx, segment, func(ctx context.Context) error {
		out, err := c.db.DeleteItem(ctx, &awsv2dynamodb.DeleteItemInput{
			TableName:    aws.String(c.tableName),
			Key:          key,
			ReturnValues: awsv2types.ReturnValueAllOld,
		})
		if err != nil {
			return err
		}
		if out.Attributes == nil {
			// Nothing existed under this key.
			return nil
		}
		check, err := c.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(c.tableName),
			Key:       key,
		})
		if err != nil {
			return err
		}
		removed = check.Item == nil
		return nil
	})
	return removed, err
}

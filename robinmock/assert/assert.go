// Package assert provides fluent assertion utilities for testing DynamoDB
// operations and robin key derivation. It makes tests more readable and
// maintainable by providing expressive assertion methods.
//
// # Usage
//
//	import "github.com/swapkats/robin/robinmock/assert"
//
//	// Assert on DynamoDB items
//	assert.Items(t, result.Items).
//		HasCount(3).
//		ContainsKey("POST#p1", "LIKE#USER#u1").
//		ContainsKind("like")
//
//	// Assert on a single item
//	assert.DynamoDBItem(t, item).
//		HasKey("pk", "USER#u1").
//		HasKind(robin.KindUser).
//		HasDataField("email", "u1@example.com")
//
//	// Assert on derived key sets
//	assert.Keys(t, keys).
//		HasPrimary("USER#u1", "USER#u1").
//		HasIndexKey(robin.DefaultLookupIndex, "USER#u1@example.com", "USER#u1@example.com")
package assert

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/swapkats/robin"
)

// ItemsAssertion provides fluent assertions for DynamoDB items.
type ItemsAssertion struct {
	t     *testing.T
	items []map[string]types.AttributeValue
}

// Items creates a new ItemsAssertion for the given DynamoDB items.
func Items(t *testing.T, items []map[string]types.AttributeValue) *ItemsAssertion {
	return &ItemsAssertion{
		t:     t,
		items: items,
	}
}

// HasCount asserts that the items collection has the expected count.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	if len(a.items) != expected {
		a.t.Errorf("expected %d items, got %d", expected, len(a.items))
	}
	return a
}

// IsEmpty asserts that the items collection is empty.
func (a *ItemsAssertion) IsEmpty() *ItemsAssertion {
	return a.HasCount(0)
}

// IsNotEmpty asserts that the items collection is not empty.
func (a *ItemsAssertion) IsNotEmpty() *ItemsAssertion {
	if len(a.items) == 0 {
		a.t.Error("expected items to not be empty")
	}
	return a
}

// ContainsKey asserts that the items contain a record stored under the given
// partition and sort key pair.
func (a *ItemsAssertion) ContainsKey(partition, sort string) *ItemsAssertion {
	for _, item := range a.items {
		pk, sk := itemKeys(item)
		if pk == partition && sk == sort {
			return a // Found the record
		}
	}

	a.t.Errorf("expected to find record %s / %s in items", partition, sort)
	return a
}

// ContainsKind asserts that at least one item carries the given kind.
func (a *ItemsAssertion) ContainsKind(kind robin.Kind) *ItemsAssertion {
	for _, item := range a.items {
		if stringValue(item[robin.AttributeNameKind]) == string(kind) {
			return a
		}
	}

	a.t.Errorf("expected to find an item of kind %q", kind)
	return a
}

// HasAttribute asserts that at least one item has the specified attribute with the expected value.
func (a *ItemsAssertion) HasAttribute(attributeName, expectedValue string) *ItemsAssertion {
	for _, item := range a.items {
		if stringValue(item[attributeName]) == expectedValue {
			return a // Found the attribute
		}
	}

	a.t.Errorf("expected to find attribute %s with value %s in items", attributeName, expectedValue)
	return a
}

// AllOfKind asserts that every item carries the given kind.
func (a *ItemsAssertion) AllOfKind(kind robin.Kind) *ItemsAssertion {
	for i, item := range a.items {
		if got := stringValue(item[robin.AttributeNameKind]); got != string(kind) {
			a.t.Errorf("item %d has kind %q, expected %q", i, got, kind)
		}
	}
	return a
}

// DynamoDBItemAssertion provides fluent assertions for a single DynamoDB item.
type DynamoDBItemAssertion struct {
	t    *testing.T
	item map[string]types.AttributeValue
}

// DynamoDBItem creates a new DynamoDBItemAssertion for the given item.
func DynamoDBItem(t *testing.T, item map[string]types.AttributeValue) *DynamoDBItemAssertion {
	return &DynamoDBItemAssertion{
		t:    t,
		item: item,
	}
}

// HasKey asserts that the item has the specified key attribute with the expected value.
func (a *DynamoDBItemAssertion) HasKey(keyName, expectedValue string) *DynamoDBItemAssertion {
	if got := stringValue(a.item[keyName]); got != expectedValue {
		a.t.Errorf("expected key %s to be %s, got %s", keyName, expectedValue, got)
	}
	return a
}

// HasKind asserts that the item's kind attribute matches.
func (a *DynamoDBItemAssertion) HasKind(kind robin.Kind) *DynamoDBItemAssertion {
	return a.HasKey(robin.AttributeNameKind, string(kind))
}

// HasAttribute asserts that the item has the specified attribute with the expected value.
func (a *DynamoDBItemAssertion) HasAttribute(attrName, expectedValue string) *DynamoDBItemAssertion {
	return a.HasKey(attrName, expectedValue)
}

// HasDataField asserts that the item's data payload has a field with the expected value.
func (a *DynamoDBItemAssertion) HasDataField(fieldName, expectedValue string) *DynamoDBItemAssertion {
	data, ok := a.item[robin.AttributeNameData].(*types.AttributeValueMemberM)
	if !ok {
		a.t.Errorf("expected item to have a data map attribute")
		return a
	}

	if got := stringValue(data.Value[fieldName]); got != expectedValue {
		a.t.Errorf("expected data field %s to be %s, got %s", fieldName, expectedValue, got)
	}
	return a
}

// HasNoAttribute asserts that the item does not carry the named attribute.
// Useful for verifying sparse index keys are omitted.
func (a *DynamoDBItemAssertion) HasNoAttribute(attrName string) *DynamoDBItemAssertion {
	if _, exists := a.item[attrName]; exists {
		a.t.Errorf("expected item to not have attribute %s", attrName)
	}
	return a
}

// KeysAssertion provides fluent assertions for derived key sets.
type KeysAssertion struct {
	t    *testing.T
	keys *robin.KeySet
}

// Keys creates a new KeysAssertion for the given key set.
func Keys(t *testing.T, keys *robin.KeySet) *KeysAssertion {
	return &KeysAssertion{
		t:    t,
		keys: keys,
	}
}

// HasPrimary asserts the primary partition and sort key values.
func (a *KeysAssertion) HasPrimary(partition, sort string) *KeysAssertion {
	if a.keys.Primary.Partition != partition {
		a.t.Errorf("expected primary partition %s, got %s", partition, a.keys.Primary.Partition)
	}
	if a.keys.Primary.Sort != sort {
		a.t.Errorf("expected primary sort %s, got %s", sort, a.keys.Primary.Sort)
	}
	return a
}

// HasIndexKey asserts that the key set projects onto the named index with
// the expected partition and sort values.
func (a *KeysAssertion) HasIndexKey(indexName, partition, sort string) *KeysAssertion {
	pair, ok := a.keys.Index(indexName)
	if !ok {
		a.t.Errorf("expected a projection onto index %s", indexName)
		return a
	}
	if pair.Partition != partition {
		a.t.Errorf("expected %s partition %s, got %s", indexName, partition, pair.Partition)
	}
	if pair.Sort != sort {
		a.t.Errorf("expected %s sort %s, got %s", indexName, sort, pair.Sort)
	}
	return a
}

// HasNoIndexKey asserts that the key set has no projection onto the named index.
func (a *KeysAssertion) HasNoIndexKey(indexName string) *KeysAssertion {
	if _, ok := a.keys.Index(indexName); ok {
		a.t.Errorf("expected no projection onto index %s", indexName)
	}
	return a
}

// itemKeys extracts the primary key strings from an item.
func itemKeys(item map[string]types.AttributeValue) (pk, sk string) {
	return stringValue(item[robin.AttributeNamePartition]), stringValue(item[robin.AttributeNameSort])
}

// stringValue extracts a string attribute value, or empty if absent or not a string.
func stringValue(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

package storage

import (
	"testing"
	"time"

	"networth-tracker/internal/auth"
	"networth-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite provides a test suite for store operations
type StoreTestSuite struct {
	suite.Suite
	store *Store
}

// SetupTest runs before each test
func (suite *StoreTestSuite) SetupTest() {
	store, err := Open(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.store = store
}

// TearDownTest runs after each test
func (suite *StoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *StoreTestSuite) addUser(email string) *models.User {
	hash, err := auth.HashPassword("secret")
	require.NoError(suite.T(), err)
	user, err := suite.store.CreateUser(email, hash)
	require.NoError(suite.T(), err)
	return user
}

func (suite *StoreTestSuite) TestFindUserByEmailIsCaseInsensitive() {
	created := suite.addUser("Me@Me.com")

	found, err := suite.store.FindUserByEmail("me@me.COM")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), found)
	assert.Equal(suite.T(), created.ID, found.ID)
	assert.Equal(suite.T(), "Me@Me.com", found.Email, "stored casing is preserved")
}

func (suite *StoreTestSuite) TestFindUserByEmailMissing() {
	found, err := suite.store.FindUserByEmail("nobody@me.com")
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), found)
}

func (suite *StoreTestSuite) TestCreateAccountRoundsInterestRate() {
	user := suite.addUser("me@me.com")

	account, err := suite.store.CreateAccount(user.ID, "Mortgage", "https://bank.test", "", "MORT", 3.875, nil)
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 3.875, account.InterestRate, 0.0005)

	accounts, err := suite.store.ListAccounts(user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), accounts, 1)
	assert.InDelta(suite.T(), 3.875, accounts[0].InterestRate, 0.0005)
}

func (suite *StoreTestSuite) TestAccountAssetReference() {
	user := suite.addUser("me@me.com")

	house, err := suite.store.CreateAccount(user.ID, "House", "", "", "HOUSE", 0, nil)
	require.NoError(suite.T(), err)

	mortgage, err := suite.store.CreateAccount(user.ID, "Mortgage", "", "", "MORT", 4.25, &house.ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), mortgage.AssetID)
	assert.Equal(suite.T(), house.ID, *mortgage.AssetID)

	accounts, err := suite.store.ListAccounts(user.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), accounts, 2)

	for _, a := range accounts {
		if a.ID == mortgage.ID {
			require.NotNil(suite.T(), a.AssetID)
			assert.Equal(suite.T(), house.ID, *a.AssetID)
		} else {
			assert.Nil(suite.T(), a.AssetID)
		}
	}
}

func (suite *StoreTestSuite) TestListAccountsOnlyReturnsOwner() {
	me := suite.addUser("me@me.com")
	you := suite.addUser("u@me.com")

	_, err := suite.store.CreateAccount(me.ID, "Checking", "", "", "CHK", 0, nil)
	require.NoError(suite.T(), err)
	_, err = suite.store.CreateAccount(you.ID, "Investment", "", "", "INV", 0, nil)
	require.NoError(suite.T(), err)

	mine, err := suite.store.ListAccounts(me.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), mine, 1)
	assert.Equal(suite.T(), "Checking", mine[0].Name)
}

func (suite *StoreTestSuite) TestStatementMoneyRoundTrip() {
	user := suite.addUser("me@me.com")
	account, err := suite.store.CreateAccount(user.ID, "Credit Card", "", "", "CC", 19.99, nil)
	require.NoError(suite.T(), err)

	start := time.Date(2019, time.September, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2019, time.September, 30, 0, 0, 0, 0, time.UTC)

	_, err = suite.store.CreateStatement(&models.Statement{
		Start:        start,
		End:          end,
		Fees:         3.56,
		Interest:     17.55,
		Deposits:     138.56,
		Withdrawals:  88.12,
		StartBalance: 156.77,
		EndBalance:   207.21,
		AccountID:    account.ID,
	})
	require.NoError(suite.T(), err)

	statements, err := suite.store.ListStatements(account.ID, 0)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), statements, 1)

	st := statements[0]
	assert.InDelta(suite.T(), 3.56, st.Fees, 0.005)
	assert.InDelta(suite.T(), 17.55, st.Interest, 0.005)
	assert.InDelta(suite.T(), 138.56, st.Deposits, 0.005)
	assert.InDelta(suite.T(), 88.12, st.Withdrawals, 0.005)
	assert.InDelta(suite.T(), 156.77, st.StartBalance, 0.005)
	assert.InDelta(suite.T(), 207.21, st.EndBalance, 0.005)
	assert.Nil(suite.T(), st.Due, "due was not set")
	assert.True(suite.T(), st.Start.Equal(start))
}

func (suite *StoreTestSuite) TestListStatementsLimit() {
	user := suite.addUser("me@me.com")
	account, err := suite.store.CreateAccount(user.ID, "Checking", "", "", "CHK", 0, nil)
	require.NoError(suite.T(), err)

	for month := 1; month <= 3; month++ {
		start := time.Date(2019, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2019, time.Month(month), 28, 0, 0, 0, 0, time.UTC)
		_, err := suite.store.CreateStatement(&models.Statement{
			Start: start, End: end, AccountID: account.ID,
		})
		require.NoError(suite.T(), err)
	}

	limited, err := suite.store.ListStatements(account.ID, 1)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), limited, 1)

	all, err := suite.store.ListStatements(account.ID, 0)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), all, 3)
}

func (suite *StoreTestSuite) TestFeedbackRelationshipsJoinBothEndpoints() {
	user := suite.addUser("me@me.com")

	first, err := suite.store.CreateFeedback(user.ID, "bug", "Login broken", "cannot log in")
	require.NoError(suite.T(), err)
	second, err := suite.store.CreateFeedback(user.ID, "bug", "Login broken again", "still cannot log in")
	require.NoError(suite.T(), err)

	_, err = suite.store.CreateFeedbackRelationship(first.ID, second.ID, "duplicate", "duplicate")
	require.NoError(suite.T(), err)

	for _, id := range []int64{first.ID, second.ID} {
		related, err := suite.store.ListFeedbackRelationships(id)
		require.NoError(suite.T(), err)
		require.Len(suite.T(), related, 1)

		rel := related[0]
		assert.Equal(suite.T(), first.ID, rel.FromID)
		assert.Equal(suite.T(), second.ID, rel.ToID)
		require.NotNil(suite.T(), rel.From)
		require.NotNil(suite.T(), rel.To)
		assert.Equal(suite.T(), "Login broken", rel.From.Subject)
		assert.Equal(suite.T(), "Login broken again", rel.To.Subject)
	}
}

func (suite *StoreTestSuite) TestFeedbackVoteUniquePair() {
	user := suite.addUser("me@me.com")
	item, err := suite.store.CreateFeedback(user.ID, "feature", "Dark mode", "")
	require.NoError(suite.T(), err)

	_, err = suite.store.CreateFeedbackVote(user.ID, item.ID, 5)
	require.NoError(suite.T(), err)

	_, err = suite.store.CreateFeedbackVote(user.ID, item.ID, 7)
	assert.Error(suite.T(), err, "second row for the same pair must violate the unique constraint")
}

func (suite *StoreTestSuite) TestFindFeedbackVoteMissing() {
	vote, err := suite.store.FindFeedbackVote(99, 99)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), vote)
}

func (suite *StoreTestSuite) TestUpdateFeedbackVote() {
	user := suite.addUser("me@me.com")
	item, err := suite.store.CreateFeedback(user.ID, "feature", "Dark mode", "")
	require.NoError(suite.T(), err)

	vote, err := suite.store.CreateFeedbackVote(user.ID, item.ID, 10)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.store.UpdateFeedbackVote(vote.ID, 20))

	found, err := suite.store.FindFeedbackVote(user.ID, item.ID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), found)
	assert.Equal(suite.T(), int64(20), found.Votes)

	all, err := suite.store.ListFeedbackVotes(item.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 1)
	assert.Equal(suite.T(), int64(20), all[0].Votes)
}

// SessionStoreTestSuite provides a test suite for session rows
type SessionStoreTestSuite struct {
	suite.Suite
	store *Store
	user  *models.User
}

// SetupTest runs before each test
func (suite *SessionStoreTestSuite) SetupTest() {
	store, err := Open(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.store = store

	hash, err := auth.HashPassword("secret")
	require.NoError(suite.T(), err)
	user, err := store.CreateUser("me@me.com", hash)
	require.NoError(suite.T(), err)
	suite.user = user
}

// TearDownTest runs after each test
func (suite *SessionStoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *SessionStoreTestSuite) TestCreateAndFindSession() {
	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)

	err = suite.store.CreateSession(token, suite.user.ID, time.Now().Add(time.Hour))
	require.NoError(suite.T(), err)

	found, err := suite.store.FindSessionUser(token, time.Now())
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), found)
	assert.Equal(suite.T(), suite.user.ID, found.ID)
}

func (suite *SessionStoreTestSuite) TestExpiredSessionIsInvisible() {
	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)

	err = suite.store.CreateSession(token, suite.user.ID, time.Now().Add(-time.Minute))
	require.NoError(suite.T(), err)

	found, err := suite.store.FindSessionUser(token, time.Now())
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), found)
}

func (suite *SessionStoreTestSuite) TestDeleteSession() {
	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)

	err = suite.store.CreateSession(token, suite.user.ID, time.Now().Add(time.Hour))
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.store.DeleteSession(token))

	found, err := suite.store.FindSessionUser(token, time.Now())
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), found)
}

// Test suite runners
func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreTestSuite))
}

package shop

// GraphQL documents understood by the shop backend. Each selects exactly
// one root field; the client resolves to that field's value.
const (
	registerDoc = `mutation UserUpsert($login: String, $password: String) {
  UserUpsert(user: {login: $login, password: $password}) { _id login }
}`

	loginDoc = `query login($login: String, $password: String) {
  login(login: $login, password: $password)
}`

	rootCategoriesDoc = `query rootCats($q: String) {
  CategoryFind(query: $q) { _id name }
}`

	categoryByIDDoc = `query catById($q: String) {
  CategoryFindOne(query: $q) {
    _id name
    goods { _id name price images { url } }
    subCategories { _id name }
  }
}`

	goodByIDDoc = `query goodById($q: String) {
  GoodFindOne(query: $q) { _id name price description images { url } }
}`

	ordersDoc = `query orderFind($q: String) {
  OrderFind(query: $q) {
    _id createdAt total
    orderGoods { _id price count good { _id name price images { url } } }
  }
}`

	addOrderDoc = `mutation newOrder($cart: [OrderGoodInput]) {
  OrderUpsert(order: {orderGoods: $cart}) { _id total }
}`
)
